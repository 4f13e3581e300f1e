package backup_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitbackup/internal/backup"
)

func TestProjectDirectoryName(testInstance *testing.T) {
	directoryName := backup.ProjectDirectoryName(testFirstProjectNameConstant, testRunTimestampConstant)
	require.Equal(testInstance, "A-20260102-1504", directoryName)
}

func TestArchiveFileName(testInstance *testing.T) {
	archiveName := backup.ArchiveFileName(testFirstProjectNameConstant, testFirstRepositoryNameConstant, testRunTimestampConstant)
	require.Equal(testInstance, "A-r1-20260102-1504.zip", archiveName)
}

func TestCloneWorkspaceName(testInstance *testing.T) {
	workspaceName := backup.CloneWorkspaceName(testFirstRepositoryNameConstant)
	require.Equal(testInstance, "r1.clonework", workspaceName)
}

func TestManifestFileName(testInstance *testing.T) {
	manifestName := backup.ManifestFileName(testRunTimestampConstant)
	require.Equal(testInstance, "manifest-20260102-1504.json", manifestName)
}

func TestRemoteArchivePathPreservesLocalLayout(testInstance *testing.T) {
	remotePath := backup.RemoteArchivePath(
		testFirstProjectNameConstant,
		testRunTimestampConstant,
		backup.ArchiveFileName(testFirstProjectNameConstant, testFirstRepositoryNameConstant, testRunTimestampConstant),
	)
	require.Equal(testInstance, "20260102-1504/A-20260102-1504/A-r1-20260102-1504.zip", remotePath)
}

func TestPlanEntrySchedulesRepository(testInstance *testing.T) {
	projectDirectory := filepath.Join("backups", testRunTimestampConstant, backup.ProjectDirectoryName(testFirstProjectNameConstant, testRunTimestampConstant))
	repository := testRepository(testFirstProjectNameConstant, testFirstRepositoryNameConstant)

	plannedEntry := backup.PlanEntry(repository, projectDirectory, testRunTimestampConstant)

	require.Equal(testInstance, testFirstProjectNameConstant, plannedEntry.Project)
	require.Equal(testInstance, testFirstRepositoryNameConstant, plannedEntry.Repository)
	require.Equal(testInstance, "A-r1-20260102-1504.zip", plannedEntry.ArchiveName)
	require.Equal(testInstance, filepath.Join(projectDirectory, "A-r1-20260102-1504.zip"), plannedEntry.ArchivePath)
	require.Equal(testInstance, backup.EntryStatusScheduled, plannedEntry.Status)
}
