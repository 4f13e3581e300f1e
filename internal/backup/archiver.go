package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitbackup/internal/execshell"
)

const (
	gitCloneSubcommandConstant    = "clone"
	gitMirrorFlagConstant         = "--mirror"
	zipRecursiveFlagConstant      = "-r"
	zipQuietFlagConstant          = "-q"
	organizationSegmentTemplate   = "/%s/"
	authenticatedURLTemplate      = "https://:%s@dev.azure.com/%s%s"
	fallbackRepositoryPathPattern = "/%s/_git/%s"

	archiverLoggerRequiredMessageConstant   = "archive producer logger not configured"
	archiverExecutorRequiredMessageConstant = "archive producer executor not configured"
	archiveErrorTemplateConstant            = "%s failed for %s/%s: %s"
	workspaceCleanupFailedMessageConstant   = "clone workspace cleanup failed"
	logFieldProjectConstant                 = "project"
	logFieldRepositoryConstant              = "repository"
	logFieldWorkspaceConstant               = "workspace"
)

// ArchiveStep names the pipeline step an archive failure originated from.
type ArchiveStep string

// Archive pipeline steps.
const (
	ArchiveStepClone    ArchiveStep = "clone"
	ArchiveStepCompress ArchiveStep = "compress"
)

// Construction sentinels.
var (
	// ErrArchiverLoggerNotConfigured indicates the producer was built without a logger.
	ErrArchiverLoggerNotConfigured = errors.New(archiverLoggerRequiredMessageConstant)
	// ErrArchiverExecutorNotConfigured indicates the producer was built without an executor.
	ErrArchiverExecutorNotConfigured = errors.New(archiverExecutorRequiredMessageConstant)
)

// ArchiveError reports a clone or compress failure for one repository.
type ArchiveError struct {
	Project    string
	Repository string
	Step       ArchiveStep
	Cause      error
}

// Error describes the failed step and repository.
func (archiveError ArchiveError) Error() string {
	return fmt.Sprintf(archiveErrorTemplateConstant, archiveError.Step, archiveError.Project, archiveError.Repository, archiveError.Cause)
}

// Unwrap exposes the underlying command failure.
func (archiveError ArchiveError) Unwrap() error {
	return archiveError.Cause
}

// CommandExecutor is the subset of execshell.ShellExecutor the producer needs.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteZip(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitArchiveProducer clones repositories with git and compresses them with zip.
type GitArchiveProducer struct {
	logger              *zap.Logger
	executor            CommandExecutor
	organization        string
	personalAccessToken string
}

// NewGitArchiveProducer constructs an archive producer for one organization.
func NewGitArchiveProducer(logger *zap.Logger, executor CommandExecutor, organization string, personalAccessToken string) (*GitArchiveProducer, error) {
	if logger == nil {
		return nil, ErrArchiverLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrArchiverExecutorNotConfigured
	}

	return &GitArchiveProducer{
		logger:              logger,
		executor:            executor,
		organization:        organization,
		personalAccessToken: personalAccessToken,
	}, nil
}

// Produce mirrors the repository and compresses the mirror into the archive
// named by the request. The temporary clone workspace is removed on every exit
// path; the archive itself is left in place.
func (producer *GitArchiveProducer) Produce(executionContext context.Context, request ArchiveRequest) error {
	workspaceName := CloneWorkspaceName(request.Repository.Name)
	workspacePath := filepath.Join(request.ProjectDirectory, workspaceName)

	defer func() {
		if removalError := os.RemoveAll(workspacePath); removalError != nil {
			producer.logger.Warn(
				workspaceCleanupFailedMessageConstant,
				zap.String(logFieldWorkspaceConstant, workspacePath),
				zap.Error(removalError),
			)
		}
	}()

	cloneURL := producer.authenticatedCloneURL(request.Repository)

	cloneDetails := execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, gitMirrorFlagConstant, cloneURL, workspacePath},
	}
	if _, cloneError := producer.executor.ExecuteGit(executionContext, cloneDetails); cloneError != nil {
		return ArchiveError{
			Project:    request.Repository.ProjectName,
			Repository: request.Repository.Name,
			Step:       ArchiveStepClone,
			Cause:      cloneError,
		}
	}

	compressDetails := execshell.CommandDetails{
		Arguments:        []string{zipQuietFlagConstant, zipRecursiveFlagConstant, request.ArchiveName, workspaceName},
		WorkingDirectory: request.ProjectDirectory,
	}
	if _, compressError := producer.executor.ExecuteZip(executionContext, compressDetails); compressError != nil {
		return ArchiveError{
			Project:    request.Repository.ProjectName,
			Repository: request.Repository.Name,
			Step:       ArchiveStepCompress,
			Cause:      compressError,
		}
	}

	return nil
}

// authenticatedCloneURL rebuilds the repository remote address around the
// organization credential. Remote addresses that do not contain the
// organization segment fall back to the canonical project/_git/repository
// layout.
func (producer *GitArchiveProducer) authenticatedCloneURL(repository Repository) string {
	organizationSegment := fmt.Sprintf(organizationSegmentTemplate, producer.organization)
	repositoryPath := fmt.Sprintf(
		fallbackRepositoryPathPattern,
		repository.ProjectName,
		repository.Name,
	)

	segmentIndex := strings.Index(repository.RemoteURL, organizationSegment)
	if segmentIndex >= 0 {
		repositoryPath = repository.RemoteURL[segmentIndex+len(organizationSegment)-1:]
	}

	return fmt.Sprintf(authenticatedURLTemplate, producer.personalAccessToken, producer.organization, repositoryPath)
}
