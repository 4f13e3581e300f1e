package backup

import (
	"context"
	"time"
)

const (
	timestampLayoutConstant = "20060102-1504"

	entryStatusScheduledStringConstant = "scheduled"
	entryStatusCompletedStringConstant = "completed"
	entryStatusFailedStringConstant    = "failed"
)

// TimestampLayout renders run timestamps as YYYYMMDD-HHMM.
const TimestampLayout = timestampLayoutConstant

// Project identifies one named grouping of repositories within the organization.
type Project struct {
	Name string
}

// Repository describes one version-controlled source tree to archive.
type Repository struct {
	Name        string
	RemoteURL   string
	ProjectName string
}

// EntryStatus tracks how far a scheduled repository backup progressed.
type EntryStatus string

// Entry status values. Entries are appended as scheduled and promoted once the
// archive steps finish; simulated runs leave every entry scheduled.
const (
	EntryStatusScheduled EntryStatus = EntryStatus(entryStatusScheduledStringConstant)
	EntryStatusCompleted EntryStatus = EntryStatus(entryStatusCompletedStringConstant)
	EntryStatusFailed    EntryStatus = EntryStatus(entryStatusFailedStringConstant)
)

// BackupEntry records one scheduled repository backup attempt. Its existence
// does not imply the archive file exists or that any upload succeeded.
type BackupEntry struct {
	Project     string      `json:"project"`
	Repository  string      `json:"repo"`
	ArchiveName string      `json:"zip_file"`
	ArchivePath string      `json:"path"`
	Status      EntryStatus `json:"status"`
}

// Manifest is the structured record of every backup attempt in one run.
type Manifest struct {
	Organization string        `json:"organization"`
	Timestamp    string        `json:"timestamp"`
	Entries      []BackupEntry `json:"repos"`
}

// RunOutcome captures the single success/failure verdict of a run.
type RunOutcome struct {
	Succeeded   bool
	ErrorDetail string
}

// RunSummary carries the information the notifier reports after a run.
type RunSummary struct {
	Organization          string
	Timestamp             string
	Outcome               RunOutcome
	AttemptedRepositories int
	DestinationNames      []string
	DryRun                bool
	ManifestPath          string
}

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// SourceCatalog enumerates projects and repositories of the organization.
// Implementations log transport failures and return empty collections instead
// of propagating them; an empty project list is judged by the Orchestrator.
type SourceCatalog interface {
	ListProjects(executionContext context.Context) ([]Project, error)
	ListRepositories(executionContext context.Context, projectName string) ([]Repository, error)
}

// ArchiveRequest names the inputs of one clone-and-compress attempt.
type ArchiveRequest struct {
	Repository       Repository
	ProjectDirectory string
	ArchiveName      string
	ArchivePath      string
}

// ArchiveProducer clones one repository and compresses it into an archive.
type ArchiveProducer interface {
	Produce(executionContext context.Context, request ArchiveRequest) error
}

// Destination is one configured remote object-storage target for archives.
type Destination interface {
	Name() string
	Upload(executionContext context.Context, localArchivePath string, remoteArchivePath string) error
}

// Notifier delivers the single outcome message of a run.
type Notifier interface {
	Notify(executionContext context.Context, summary RunSummary) error
}
