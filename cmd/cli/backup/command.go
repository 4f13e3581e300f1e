// Package backup assembles the Cobra command that runs one organization backup.
package backup

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitbackup/internal/azuredevops"
	backupcore "github.com/temirov/gitbackup/internal/backup"
	"github.com/temirov/gitbackup/internal/execshell"
	"github.com/temirov/gitbackup/internal/notify"
	"github.com/temirov/gitbackup/internal/storage/blobdest"
	"github.com/temirov/gitbackup/internal/storage/s3dest"
)

const (
	commandUseConstant              = "backup"
	commandShortDescriptionConstant = "Back up every git repository of an organization"
	commandLongDescriptionConstant  = "backup enumerates the organization's projects and repositories, archives each repository locally, optionally uploads the archives to Azure Blob Storage and AWS S3, and sends one outcome notification."

	organizationFlagNameConstant         = "org"
	organizationLongFlagNameConstant     = "organization"
	organizationFlagDescriptionConstant  = "Target organization identifier"
	azureBackupFlagNameConstant          = "azure-backup"
	azureBackupFlagDescriptionConstant   = "Upload archives to Azure Blob Storage"
	awsBackupFlagNameConstant            = "aws-backup"
	awsBackupFlagDescriptionConstant     = "Upload archives to AWS S3"
	dryRunFlagNameConstant               = "dry-run"
	dryRunFlagDescriptionConstant        = "Simulate the backup without cloning, compressing, uploading, or deleting"
	excludeProjectFlagNameConstant       = "exclude-project"
	excludeProjectFlagDescriptionConst   = "Project to exclude from enumeration (repeatable)"
	keepLocalFlagNameConstant            = "keep-local"
	keepLocalFlagDescriptionConstant     = "Retain the local backup root after a successful run"

	personalAccessTokenEnvironmentName     = "AZURE_DEVOPS_PAT"
	azureConnectionStringEnvironmentName   = "AZURE_STORAGE_CONNECTION_STRING"
	azureContainerEnvironmentName          = "AZURE_CONTAINER"
	awsBucketEnvironmentName               = "AWS_BUCKET"
	smtpServerEnvironmentName              = "SMTP_SERVER"
	smtpPortEnvironmentName                = "SMTP_PORT"
	smtpUsernameEnvironmentName            = "SMTP_USERNAME"
	smtpPasswordEnvironmentName            = "SMTP_PASSWORD"
	mailFromEnvironmentName                = "EMAIL_FROM"
	mailToEnvironmentName                  = "EMAIL_TO"
	mailRecipientsSeparatorConstant        = ","
	defaultSMTPPortConstant                = 587

	organizationRequiredMessageConstant = "organization required; provide --org or configuration"
	credentialMissingMessageConstant    = "source-control credential missing; set " + personalAccessTokenEnvironmentName
	azureDestinationDisabledMessage     = "azure blob destination disabled"
	awsDestinationDisabledMessage       = "aws s3 destination disabled"
	loggerMissingMessageConstant        = "logger not initialized"

	logFieldReasonConstant = "reason"
)

// LoggerProvider supplies the logger configured by the root application.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the backup command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	Clock                 backupcore.Clock
}

type commandFlagValues struct {
	organizationShort string
	organizationLong  string
	azureBackup       bool
	awsBackup         bool
	dryRun            bool
	keepLocal         bool
	excludedProjects  []string
}

// Build constructs the backup command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	flagValues := &commandFlagValues{}

	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, flagValues)
		},
	}

	registerFlags(command, flagValues)

	return command, nil
}

func registerFlags(command *cobra.Command, flagValues *commandFlagValues) {
	command.Flags().StringVar(&flagValues.organizationShort, organizationFlagNameConstant, "", organizationFlagDescriptionConstant)
	command.Flags().StringVar(&flagValues.organizationLong, organizationLongFlagNameConstant, "", organizationFlagDescriptionConstant)
	command.Flags().BoolVar(&flagValues.azureBackup, azureBackupFlagNameConstant, false, azureBackupFlagDescriptionConstant)
	command.Flags().BoolVar(&flagValues.awsBackup, awsBackupFlagNameConstant, false, awsBackupFlagDescriptionConstant)
	command.Flags().BoolVar(&flagValues.dryRun, dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)
	command.Flags().BoolVar(&flagValues.keepLocal, keepLocalFlagNameConstant, false, keepLocalFlagDescriptionConstant)
	command.Flags().StringArrayVar(&flagValues.excludedProjects, excludeProjectFlagNameConstant, nil, excludeProjectFlagDescriptionConst)
}

func (builder *CommandBuilder) run(command *cobra.Command, flagValues *commandFlagValues) error {
	logger := builder.resolveLogger()
	if logger == nil {
		return errors.New(loggerMissingMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	applyFlagOverrides(command, flagValues, &configuration)

	if len(strings.TrimSpace(configuration.Organization)) == 0 {
		return errors.New(organizationRequiredMessageConstant)
	}

	personalAccessToken := resolveSetting(configuration.PersonalAccessToken, personalAccessTokenEnvironmentName)
	if len(personalAccessToken) == 0 {
		return errors.New(credentialMissingMessageConstant)
	}

	catalogClient, catalogError := azuredevops.NewClient(logger, azuredevops.ClientConfiguration{
		Organization:        configuration.Organization,
		PersonalAccessToken: personalAccessToken,
		ExcludedProjects:    configuration.ExcludedProjects,
	})
	if catalogError != nil {
		return catalogError
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return executorError
	}

	archiveProducer, archiverError := backupcore.NewGitArchiveProducer(logger, shellExecutor, configuration.Organization, personalAccessToken)
	if archiverError != nil {
		return archiverError
	}

	destinations := builder.buildDestinations(logger, configuration)

	mailNotifier, notifierError := notify.NewMailNotifier(logger, resolveMailSettings(configuration.Mail))
	if notifierError != nil {
		return notifierError
	}

	orchestrator, orchestratorError := backupcore.NewOrchestrator(
		backupcore.Dependencies{
			Logger:       logger,
			Clock:        builder.Clock,
			Catalog:      catalogClient,
			Archiver:     archiveProducer,
			Destinations: destinations,
			Notifier:     mailNotifier,
		},
		backupcore.Options{
			Organization:      configuration.Organization,
			BackupRootParent:  configuration.BackupRoot,
			ExcludedProjects:  configuration.ExcludedProjects,
			DryRun:            configuration.DryRun,
			KeepLocal:         configuration.KeepLocal,
			RepositoryTimeout: time.Duration(configuration.CloneTimeoutSeconds) * time.Second,
		},
	)
	if orchestratorError != nil {
		return orchestratorError
	}

	orchestrator.Run(command.Context())

	return nil
}

// buildDestinations constructs each enabled destination independently; a
// misconfigured destination is disabled with a warning and never aborts the run.
func (builder *CommandBuilder) buildDestinations(logger *zap.Logger, configuration CommandConfiguration) []backupcore.Destination {
	destinations := make([]backupcore.Destination, 0, 2)

	if configuration.AzureBackup {
		connectionString := resolveSetting(configuration.Storage.Azure.ConnectionString, azureConnectionStringEnvironmentName)
		containerName := resolveSetting(configuration.Storage.Azure.Container, azureContainerEnvironmentName)
		blobStore, blobError := blobdest.NewStore(connectionString, containerName)
		if blobError != nil {
			logger.Warn(azureDestinationDisabledMessage, zap.String(logFieldReasonConstant, blobError.Error()))
		} else {
			destinations = append(destinations, blobStore)
		}
	}

	if configuration.AWSBackup {
		bucketName := resolveSetting(configuration.Storage.AWS.Bucket, awsBucketEnvironmentName)
		s3Store, s3Error := s3dest.NewStore(bucketName)
		if s3Error != nil {
			logger.Warn(awsDestinationDisabledMessage, zap.String(logFieldReasonConstant, s3Error.Error()))
		} else {
			destinations = append(destinations, s3Store)
		}
	}

	return destinations
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return nil
	}
	return builder.LoggerProvider()
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider()
}

func applyFlagOverrides(command *cobra.Command, flagValues *commandFlagValues, configuration *CommandConfiguration) {
	if command.Flags().Changed(organizationLongFlagNameConstant) {
		configuration.Organization = flagValues.organizationLong
	} else if command.Flags().Changed(organizationFlagNameConstant) {
		configuration.Organization = flagValues.organizationShort
	}

	if command.Flags().Changed(azureBackupFlagNameConstant) {
		configuration.AzureBackup = flagValues.azureBackup
	}
	if command.Flags().Changed(awsBackupFlagNameConstant) {
		configuration.AWSBackup = flagValues.awsBackup
	}
	if command.Flags().Changed(dryRunFlagNameConstant) {
		configuration.DryRun = flagValues.dryRun
	}
	if command.Flags().Changed(keepLocalFlagNameConstant) {
		configuration.KeepLocal = flagValues.keepLocal
	}
	if command.Flags().Changed(excludeProjectFlagNameConstant) {
		configuration.ExcludedProjects = flagValues.excludedProjects
	}
}

// resolveMailSettings fills unset mail configuration from the conventional
// environment variable names.
func resolveMailSettings(configuration MailConfiguration) notify.Settings {
	settings := notify.Settings{
		Host:        resolveSetting(configuration.Host, smtpServerEnvironmentName),
		Port:        configuration.Port,
		Username:    resolveSetting(configuration.Username, smtpUsernameEnvironmentName),
		Password:    resolveSetting(configuration.Password, smtpPasswordEnvironmentName),
		FromAddress: resolveSetting(configuration.FromAddress, mailFromEnvironmentName),
		ToAddresses: configuration.ToAddresses,
	}

	if settings.Port == 0 {
		settings.Port = defaultSMTPPortConstant
		if portValue, parseError := strconv.Atoi(os.Getenv(smtpPortEnvironmentName)); parseError == nil && portValue > 0 {
			settings.Port = portValue
		}
	}

	if len(settings.ToAddresses) == 0 {
		recipientList := os.Getenv(mailToEnvironmentName)
		for _, recipient := range strings.Split(recipientList, mailRecipientsSeparatorConstant) {
			trimmedRecipient := strings.TrimSpace(recipient)
			if len(trimmedRecipient) > 0 {
				settings.ToAddresses = append(settings.ToAddresses, trimmedRecipient)
			}
		}
	}

	return settings
}

func resolveSetting(configuredValue string, environmentName string) string {
	trimmedValue := strings.TrimSpace(configuredValue)
	if len(trimmedValue) > 0 {
		return trimmedValue
	}
	return strings.TrimSpace(os.Getenv(environmentName))
}
