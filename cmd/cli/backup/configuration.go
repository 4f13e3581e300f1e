package backup

const (
	organizationConfigKeySuffixConstant        = ".organization"
	backupRootConfigKeySuffixConstant          = ".backup_root"
	azureBackupConfigKeySuffixConstant         = ".azure_backup"
	awsBackupConfigKeySuffixConstant           = ".aws_backup"
	dryRunConfigKeySuffixConstant              = ".dry_run"
	keepLocalConfigKeySuffixConstant           = ".keep_local"
	excludedProjectsConfigKeySuffixConstant    = ".excluded_projects"
	cloneTimeoutSecondsConfigKeySuffixConstant = ".clone_timeout_seconds"

	defaultBackupRootConstant          = "backups"
	defaultCloneTimeoutSecondsConstant = 0
)

// CommandConfiguration describes the persisted configuration for the backup command.
type CommandConfiguration struct {
	Organization        string               `mapstructure:"organization"`
	BackupRoot          string               `mapstructure:"backup_root"`
	AzureBackup         bool                 `mapstructure:"azure_backup"`
	AWSBackup           bool                 `mapstructure:"aws_backup"`
	DryRun              bool                 `mapstructure:"dry_run"`
	KeepLocal           bool                 `mapstructure:"keep_local"`
	ExcludedProjects    []string             `mapstructure:"excluded_projects"`
	CloneTimeoutSeconds int                  `mapstructure:"clone_timeout_seconds"`
	PersonalAccessToken string               `mapstructure:"personal_access_token"`
	Mail                MailConfiguration    `mapstructure:"mail"`
	Storage             StorageConfiguration `mapstructure:"storage"`
}

// MailConfiguration stores SMTP delivery settings for the outcome notification.
type MailConfiguration struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	FromAddress string   `mapstructure:"from_address"`
	ToAddresses []string `mapstructure:"to_addresses"`
}

// StorageConfiguration groups upload destination settings.
type StorageConfiguration struct {
	Azure AzureStorageConfiguration `mapstructure:"azure"`
	AWS   AWSStorageConfiguration   `mapstructure:"aws"`
}

// AzureStorageConfiguration stores Azure Blob destination settings.
type AzureStorageConfiguration struct {
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
}

// AWSStorageConfiguration stores AWS S3 destination settings.
type AWSStorageConfiguration struct {
	Bucket string `mapstructure:"bucket"`
}

// DefaultConfigurationValues supplies configuration defaults keyed under the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + backupRootConfigKeySuffixConstant:          defaultBackupRootConstant,
		configurationKeyPrefix + azureBackupConfigKeySuffixConstant:         false,
		configurationKeyPrefix + awsBackupConfigKeySuffixConstant:           false,
		configurationKeyPrefix + dryRunConfigKeySuffixConstant:              false,
		configurationKeyPrefix + keepLocalConfigKeySuffixConstant:           false,
		configurationKeyPrefix + excludedProjectsConfigKeySuffixConstant:    []string{},
		configurationKeyPrefix + cloneTimeoutSecondsConfigKeySuffixConstant: defaultCloneTimeoutSecondsConstant,
	}
}
