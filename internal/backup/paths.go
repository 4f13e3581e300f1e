package backup

import (
	"fmt"
	"path"
	"path/filepath"
)

const (
	projectDirectoryNameTemplateConstant = "%s-%s"
	archiveFileNameTemplateConstant      = "%s-%s-%s.zip"
	cloneWorkspaceSuffixConstant         = ".clonework"
	manifestFileNameTemplateConstant     = "manifest-%s.json"
)

// ProjectDirectoryName derives the per-project directory name for a run.
func ProjectDirectoryName(projectName string, runTimestamp string) string {
	return fmt.Sprintf(projectDirectoryNameTemplateConstant, projectName, runTimestamp)
}

// ArchiveFileName derives the deterministic archive file name for a repository.
func ArchiveFileName(projectName string, repositoryName string, runTimestamp string) string {
	return fmt.Sprintf(archiveFileNameTemplateConstant, projectName, repositoryName, runTimestamp)
}

// CloneWorkspaceName derives the temporary clone directory name for a repository.
func CloneWorkspaceName(repositoryName string) string {
	return repositoryName + cloneWorkspaceSuffixConstant
}

// ManifestFileName derives the manifest file name for a run.
func ManifestFileName(runTimestamp string) string {
	return fmt.Sprintf(manifestFileNameTemplateConstant, runTimestamp)
}

// PlanEntry constructs the scheduled BackupEntry for a repository. Simulated
// and real runs share this path construction so both produce identical
// manifest shapes.
func PlanEntry(repository Repository, projectDirectory string, runTimestamp string) BackupEntry {
	archiveName := ArchiveFileName(repository.ProjectName, repository.Name, runTimestamp)
	return BackupEntry{
		Project:     repository.ProjectName,
		Repository:  repository.Name,
		ArchiveName: archiveName,
		ArchivePath: filepath.Join(projectDirectory, archiveName),
		Status:      EntryStatusScheduled,
	}
}

// RemoteArchivePath computes the forward-slash cloud path for an archive,
// preserving the two-level local layout under the run timestamp.
func RemoteArchivePath(projectName string, runTimestamp string, archiveFileName string) string {
	return path.Join(runTimestamp, ProjectDirectoryName(projectName, runTimestamp), archiveFileName)
}
