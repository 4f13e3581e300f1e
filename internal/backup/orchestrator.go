package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	orchestratorLoggerRequiredMessageConstant   = "orchestrator logger not configured"
	orchestratorCatalogRequiredMessageConstant  = "orchestrator source catalog not configured"
	orchestratorArchiverRequiredMessageConstant = "orchestrator archive producer not configured"
	orchestratorNotifierRequiredMessageConstant = "orchestrator notifier not configured"
	organizationRequiredMessageConstant         = "organization not configured"

	noProjectsErrorDetailConstant          = "no projects found"
	backupRootCreationErrorDetailTemplate  = "unable to create backup root: %s"
	projectDirectoryErrorDetailTemplate    = "unable to create project directory for %s: %s"
	manifestWriteErrorDetailTemplate       = "unable to write manifest: %s"
	directoryPermissionsConstant           = 0o755
	defaultBackupRootParentConstant        = "backups"

	backupRootCreatedMessageConstant        = "backup root created"
	excludedProjectsMessageConstant         = "excluding projects from enumeration"
	projectsDiscoveredMessageConstant       = "projects discovered"
	noRepositoriesMessageConstant           = "no repositories found in project"
	repositoryScheduledMessageConstant      = "repository backup scheduled"
	dryRunSkipArchiveMessageConstant        = "[dry run] skipping clone and compress"
	dryRunSkipUploadMessageConstant         = "[dry run] skipping upload"
	repositoryBackupFailedMessageConstant   = "repository backup failed"
	repositoryBackupDoneMessageConstant     = "repository backup completed"
	uploadsDisabledMessageConstant          = "cloud backup disabled, skipping upload"
	uploadStartedMessageConstant            = "uploading archive"
	uploadFailedMessageConstant             = "upload failed"
	uploadCompletedMessageConstant          = "upload completed"
	manifestWrittenMessageConstant          = "backup manifest written"
	notificationFailedMessageConstant       = "outcome notification delivery failed"
	cleanupSkippedDryRunMessageConstant     = "[dry run] retaining local backup root"
	cleanupSkippedKeepLocalMessageConstant  = "keep-local enabled, retaining local backup root"
	cleanupSkippedFailureMessageConstant    = "run failed, retaining local backup root"
	cleanupStartedMessageConstant           = "deleting local backup root"
	cleanupFailedMessageConstant            = "local backup root deletion failed"
	runCompletedMessageConstant             = "backup run completed"

	logFieldOrganizationConstant     = "organization"
	logFieldTimestampConstant        = "timestamp"
	logFieldBackupRootConstant       = "backup_root"
	logFieldProjectCountConstant     = "project_count"
	logFieldExcludedConstant         = "excluded_projects"
	logFieldArchiveConstant          = "archive"
	logFieldDestinationConstant      = "destination"
	logFieldRemotePathConstant       = "remote_path"
	logFieldManifestConstant         = "manifest"
	logFieldSucceededConstant        = "succeeded"
	logFieldErrorDetailConstant      = "error_detail"
	logFieldAttemptedReposConstant   = "attempted_repositories"
)

// Construction sentinels.
var (
	// ErrOrchestratorLoggerNotConfigured indicates a missing logger dependency.
	ErrOrchestratorLoggerNotConfigured = errors.New(orchestratorLoggerRequiredMessageConstant)
	// ErrCatalogNotConfigured indicates a missing source catalog dependency.
	ErrCatalogNotConfigured = errors.New(orchestratorCatalogRequiredMessageConstant)
	// ErrArchiverNotConfigured indicates a missing archive producer dependency.
	ErrArchiverNotConfigured = errors.New(orchestratorArchiverRequiredMessageConstant)
	// ErrNotifierNotConfigured indicates a missing notifier dependency.
	ErrNotifierNotConfigured = errors.New(orchestratorNotifierRequiredMessageConstant)
	// ErrOrganizationNotConfigured indicates the run options name no organization.
	ErrOrganizationNotConfigured = errors.New(organizationRequiredMessageConstant)
)

// Dependencies captures the collaborators driving one backup run.
type Dependencies struct {
	Logger       *zap.Logger
	Clock        Clock
	Catalog      SourceCatalog
	Archiver     ArchiveProducer
	Destinations []Destination
	Notifier     Notifier
}

// Options configures one backup run.
type Options struct {
	Organization      string
	BackupRootParent  string
	ExcludedProjects  []string
	DryRun            bool
	KeepLocal         bool
	RepositoryTimeout time.Duration
}

// Orchestrator drives enumeration, archiving, upload dispatch, manifest
// persistence, notification, and cleanup for one run.
//
// The backup root is keyed by the run timestamp and owned exclusively by this
// run. Two runs started within the same timestamp resolution would share the
// directory; no cross-process locking guards against that.
type Orchestrator struct {
	dependencies Dependencies
	options      Options
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(dependencies Dependencies, options Options) (*Orchestrator, error) {
	if dependencies.Logger == nil {
		return nil, ErrOrchestratorLoggerNotConfigured
	}
	if dependencies.Catalog == nil {
		return nil, ErrCatalogNotConfigured
	}
	if dependencies.Archiver == nil {
		return nil, ErrArchiverNotConfigured
	}
	if dependencies.Notifier == nil {
		return nil, ErrNotifierNotConfigured
	}
	if len(options.Organization) == 0 {
		return nil, ErrOrganizationNotConfigured
	}

	if dependencies.Clock == nil {
		dependencies.Clock = SystemClock{}
	}
	if len(options.BackupRootParent) == 0 {
		options.BackupRootParent = defaultBackupRootParentConstant
	}

	return &Orchestrator{dependencies: dependencies, options: options}, nil
}

// Run executes one backup run end to end and always reaches the notification
// and cleanup decision, regardless of enumeration or repository failures.
func (orchestrator *Orchestrator) Run(executionContext context.Context) RunOutcome {
	logger := orchestrator.dependencies.Logger
	runTimestamp := orchestrator.dependencies.Clock.Now().UTC().Format(TimestampLayout)
	backupRoot := filepath.Join(orchestrator.options.BackupRootParent, runTimestamp)
	manifestBuilder := NewManifestBuilder(orchestrator.options.Organization, runTimestamp)

	outcome := RunOutcome{Succeeded: true}

	if len(orchestrator.options.ExcludedProjects) > 0 {
		logger.Info(excludedProjectsMessageConstant, zap.Strings(logFieldExcludedConstant, orchestrator.options.ExcludedProjects))
	}

	if creationError := os.MkdirAll(backupRoot, directoryPermissionsConstant); creationError != nil {
		outcome = RunOutcome{Succeeded: false, ErrorDetail: fmt.Sprintf(backupRootCreationErrorDetailTemplate, creationError)}
	} else {
		logger.Info(
			backupRootCreatedMessageConstant,
			zap.String(logFieldBackupRootConstant, backupRoot),
			zap.String(logFieldTimestampConstant, runTimestamp),
		)
		outcome = orchestrator.processProjects(executionContext, backupRoot, runTimestamp, manifestBuilder)
	}

	manifestPath := filepath.Join(backupRoot, ManifestFileName(runTimestamp))
	if writeError := manifestBuilder.Write(manifestPath); writeError != nil {
		outcome = RunOutcome{Succeeded: false, ErrorDetail: fmt.Sprintf(manifestWriteErrorDetailTemplate, writeError)}
	} else {
		logger.Info(manifestWrittenMessageConstant, zap.String(logFieldManifestConstant, manifestPath))
	}

	orchestrator.notify(executionContext, runTimestamp, manifestPath, manifestBuilder.EntryCount(), outcome)
	orchestrator.cleanupOrRetain(backupRoot, outcome)

	logger.Info(
		runCompletedMessageConstant,
		zap.Bool(logFieldSucceededConstant, outcome.Succeeded),
		zap.String(logFieldErrorDetailConstant, outcome.ErrorDetail),
		zap.Int(logFieldAttemptedReposConstant, manifestBuilder.EntryCount()),
	)

	return outcome
}

// processProjects walks every non-excluded project and schedules one backup
// attempt per repository. Repository failures stay contained; any error at
// this level aborts the remaining projects and fails the run.
func (orchestrator *Orchestrator) processProjects(executionContext context.Context, backupRoot string, runTimestamp string, manifestBuilder *ManifestBuilder) RunOutcome {
	logger := orchestrator.dependencies.Logger

	projects, enumerationError := orchestrator.dependencies.Catalog.ListProjects(executionContext)
	if enumerationError != nil || len(projects) == 0 {
		return RunOutcome{Succeeded: false, ErrorDetail: noProjectsErrorDetailConstant}
	}

	logger.Info(
		projectsDiscoveredMessageConstant,
		zap.String(logFieldOrganizationConstant, orchestrator.options.Organization),
		zap.Int(logFieldProjectCountConstant, len(projects)),
	)

	for _, project := range projects {
		projectDirectory := filepath.Join(backupRoot, ProjectDirectoryName(project.Name, runTimestamp))
		if creationError := os.MkdirAll(projectDirectory, directoryPermissionsConstant); creationError != nil {
			return RunOutcome{Succeeded: false, ErrorDetail: fmt.Sprintf(projectDirectoryErrorDetailTemplate, project.Name, creationError)}
		}

		repositories, repositoryListingError := orchestrator.dependencies.Catalog.ListRepositories(executionContext, project.Name)
		if repositoryListingError != nil || len(repositories) == 0 {
			logger.Warn(noRepositoriesMessageConstant, zap.String(logFieldProjectConstant, project.Name))
			continue
		}

		for _, repository := range repositories {
			orchestrator.processRepository(executionContext, repository, projectDirectory, runTimestamp, manifestBuilder)
		}
	}

	return RunOutcome{Succeeded: true}
}

// processRepository schedules, archives, and dispatches one repository. All
// failures are logged and recorded on the entry without escaping.
func (orchestrator *Orchestrator) processRepository(executionContext context.Context, repository Repository, projectDirectory string, runTimestamp string, manifestBuilder *ManifestBuilder) {
	logger := orchestrator.dependencies.Logger

	entry := PlanEntry(repository, projectDirectory, runTimestamp)
	entryIndex := manifestBuilder.Append(entry)

	logger.Info(
		repositoryScheduledMessageConstant,
		zap.String(logFieldProjectConstant, repository.ProjectName),
		zap.String(logFieldRepositoryConstant, repository.Name),
		zap.String(logFieldArchiveConstant, entry.ArchiveName),
	)

	if orchestrator.options.DryRun {
		logger.Info(dryRunSkipArchiveMessageConstant, zap.String(logFieldRepositoryConstant, repository.Name))
		return
	}

	archiveContext := executionContext
	if orchestrator.options.RepositoryTimeout > 0 {
		var cancelArchiveContext context.CancelFunc
		archiveContext, cancelArchiveContext = context.WithTimeout(executionContext, orchestrator.options.RepositoryTimeout)
		defer cancelArchiveContext()
	}

	archiveRequest := ArchiveRequest{
		Repository:       repository,
		ProjectDirectory: projectDirectory,
		ArchiveName:      entry.ArchiveName,
		ArchivePath:      entry.ArchivePath,
	}

	if produceError := orchestrator.dependencies.Archiver.Produce(archiveContext, archiveRequest); produceError != nil {
		manifestBuilder.SetEntryStatus(entryIndex, EntryStatusFailed)
		logger.Error(
			repositoryBackupFailedMessageConstant,
			zap.String(logFieldProjectConstant, repository.ProjectName),
			zap.String(logFieldRepositoryConstant, repository.Name),
			zap.Error(produceError),
		)
		return
	}

	manifestBuilder.SetEntryStatus(entryIndex, EntryStatusCompleted)
	logger.Info(
		repositoryBackupDoneMessageConstant,
		zap.String(logFieldProjectConstant, repository.ProjectName),
		zap.String(logFieldRepositoryConstant, repository.Name),
		zap.String(logFieldArchiveConstant, entry.ArchivePath),
	)

	orchestrator.dispatchUploads(executionContext, entry, runTimestamp)
}

// dispatchUploads invokes every configured destination independently; one
// destination failing never blocks or rolls back another.
func (orchestrator *Orchestrator) dispatchUploads(executionContext context.Context, entry BackupEntry, runTimestamp string) {
	logger := orchestrator.dependencies.Logger
	remoteArchivePath := RemoteArchivePath(entry.Project, runTimestamp, entry.ArchiveName)

	if len(orchestrator.dependencies.Destinations) == 0 {
		logger.Info(uploadsDisabledMessageConstant, zap.String(logFieldRemotePathConstant, remoteArchivePath))
		return
	}

	for _, destination := range orchestrator.dependencies.Destinations {
		logger.Info(
			uploadStartedMessageConstant,
			zap.String(logFieldDestinationConstant, destination.Name()),
			zap.String(logFieldRemotePathConstant, remoteArchivePath),
		)

		if uploadError := destination.Upload(executionContext, entry.ArchivePath, remoteArchivePath); uploadError != nil {
			logger.Error(
				uploadFailedMessageConstant,
				zap.String(logFieldDestinationConstant, destination.Name()),
				zap.String(logFieldRemotePathConstant, remoteArchivePath),
				zap.Error(uploadError),
			)
			continue
		}

		logger.Info(
			uploadCompletedMessageConstant,
			zap.String(logFieldDestinationConstant, destination.Name()),
			zap.String(logFieldRemotePathConstant, remoteArchivePath),
		)
	}
}

func (orchestrator *Orchestrator) notify(executionContext context.Context, runTimestamp string, manifestPath string, attemptedRepositories int, outcome RunOutcome) {
	destinationNames := make([]string, 0, len(orchestrator.dependencies.Destinations))
	for _, destination := range orchestrator.dependencies.Destinations {
		destinationNames = append(destinationNames, destination.Name())
	}

	summary := RunSummary{
		Organization:          orchestrator.options.Organization,
		Timestamp:             runTimestamp,
		Outcome:               outcome,
		AttemptedRepositories: attemptedRepositories,
		DestinationNames:      destinationNames,
		DryRun:                orchestrator.options.DryRun,
		ManifestPath:          manifestPath,
	}

	if notificationError := orchestrator.dependencies.Notifier.Notify(executionContext, summary); notificationError != nil {
		orchestrator.dependencies.Logger.Warn(notificationFailedMessageConstant, zap.Error(notificationError))
	}
}

// cleanupOrRetain deletes the backup root only after manifest write and
// notification, and only for successful non-simulated runs without the
// retention flag.
func (orchestrator *Orchestrator) cleanupOrRetain(backupRoot string, outcome RunOutcome) {
	logger := orchestrator.dependencies.Logger

	switch {
	case orchestrator.options.DryRun:
		logger.Info(cleanupSkippedDryRunMessageConstant, zap.String(logFieldBackupRootConstant, backupRoot))
		return
	case !outcome.Succeeded:
		logger.Info(cleanupSkippedFailureMessageConstant, zap.String(logFieldBackupRootConstant, backupRoot))
		return
	case orchestrator.options.KeepLocal:
		logger.Info(cleanupSkippedKeepLocalMessageConstant, zap.String(logFieldBackupRootConstant, backupRoot))
		return
	}

	logger.Info(cleanupStartedMessageConstant, zap.String(logFieldBackupRootConstant, backupRoot))
	if removalError := os.RemoveAll(backupRoot); removalError != nil {
		logger.Error(cleanupFailedMessageConstant, zap.Error(removalError))
	}
}
