package backup_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitbackup/internal/backup"
)

func TestManifestBuilderPreservesAppendOrder(testInstance *testing.T) {
	builder := backup.NewManifestBuilder(testOrganizationNameConstant, testRunTimestampConstant)

	firstIndex := builder.Append(backup.PlanEntry(testRepository(testFirstProjectNameConstant, testFirstRepositoryNameConstant), "", testRunTimestampConstant))
	secondIndex := builder.Append(backup.PlanEntry(testRepository(testFirstProjectNameConstant, testSecondRepositoryNameConstant), "", testRunTimestampConstant))

	require.Equal(testInstance, 0, firstIndex)
	require.Equal(testInstance, 1, secondIndex)
	require.Equal(testInstance, 2, builder.EntryCount())

	manifest := builder.Manifest()
	require.Equal(testInstance, testFirstRepositoryNameConstant, manifest.Entries[0].Repository)
	require.Equal(testInstance, testSecondRepositoryNameConstant, manifest.Entries[1].Repository)
}

func TestManifestBuilderSetEntryStatus(testInstance *testing.T) {
	builder := backup.NewManifestBuilder(testOrganizationNameConstant, testRunTimestampConstant)
	entryIndex := builder.Append(backup.PlanEntry(testRepository(testFirstProjectNameConstant, testFirstRepositoryNameConstant), "", testRunTimestampConstant))

	builder.SetEntryStatus(entryIndex, backup.EntryStatusCompleted)
	require.Equal(testInstance, backup.EntryStatusCompleted, builder.Manifest().Entries[entryIndex].Status)

	// Out-of-range indexes are ignored rather than panicking.
	builder.SetEntryStatus(-1, backup.EntryStatusFailed)
	builder.SetEntryStatus(builder.EntryCount(), backup.EntryStatusFailed)
	require.Equal(testInstance, backup.EntryStatusCompleted, builder.Manifest().Entries[entryIndex].Status)
}

func TestManifestBuilderManifestReturnsCopy(testInstance *testing.T) {
	builder := backup.NewManifestBuilder(testOrganizationNameConstant, testRunTimestampConstant)
	builder.Append(backup.PlanEntry(testRepository(testFirstProjectNameConstant, testFirstRepositoryNameConstant), "", testRunTimestampConstant))

	manifestCopy := builder.Manifest()
	manifestCopy.Entries[0].Status = backup.EntryStatusFailed

	require.Equal(testInstance, backup.EntryStatusScheduled, builder.Manifest().Entries[0].Status)
}

func TestManifestWriteSerializedShape(testInstance *testing.T) {
	builder := backup.NewManifestBuilder(testOrganizationNameConstant, testRunTimestampConstant)
	builder.Append(backup.PlanEntry(testRepository(testFirstProjectNameConstant, testFirstRepositoryNameConstant), "", testRunTimestampConstant))

	manifestPath := filepath.Join(testInstance.TempDir(), backup.ManifestFileName(testRunTimestampConstant))
	require.NoError(testInstance, builder.Write(manifestPath))

	manifestContent, readError := os.ReadFile(manifestPath)
	require.NoError(testInstance, readError)

	var serializedManifest map[string]any
	require.NoError(testInstance, json.Unmarshal(manifestContent, &serializedManifest))
	require.Contains(testInstance, serializedManifest, "organization")
	require.Contains(testInstance, serializedManifest, "timestamp")
	require.Contains(testInstance, serializedManifest, "repos")

	serializedEntries, entriesTyped := serializedManifest["repos"].([]any)
	require.True(testInstance, entriesTyped)
	require.Len(testInstance, serializedEntries, 1)

	serializedEntry, entryTyped := serializedEntries[0].(map[string]any)
	require.True(testInstance, entryTyped)
	require.Contains(testInstance, serializedEntry, "project")
	require.Contains(testInstance, serializedEntry, "repo")
	require.Contains(testInstance, serializedEntry, "zip_file")
	require.Contains(testInstance, serializedEntry, "path")
	require.Contains(testInstance, serializedEntry, "status")
	require.Equal(testInstance, string(backup.EntryStatusScheduled), serializedEntry["status"])
}

func TestManifestWriteEmptyRunSerializesEmptyList(testInstance *testing.T) {
	builder := backup.NewManifestBuilder(testOrganizationNameConstant, testRunTimestampConstant)

	manifestPath := filepath.Join(testInstance.TempDir(), backup.ManifestFileName(testRunTimestampConstant))
	require.NoError(testInstance, builder.Write(manifestPath))

	manifestContent, readError := os.ReadFile(manifestPath)
	require.NoError(testInstance, readError)

	var serializedManifest map[string]any
	require.NoError(testInstance, json.Unmarshal(manifestContent, &serializedManifest))

	serializedEntries, entriesTyped := serializedManifest["repos"].([]any)
	require.True(testInstance, entriesTyped)
	require.Empty(testInstance, serializedEntries)
}

func TestManifestWriteFailureLeavesNoFile(testInstance *testing.T) {
	builder := backup.NewManifestBuilder(testOrganizationNameConstant, testRunTimestampConstant)

	missingDirectory := filepath.Join(testInstance.TempDir(), "missing")
	manifestPath := filepath.Join(missingDirectory, backup.ManifestFileName(testRunTimestampConstant))

	require.Error(testInstance, builder.Write(manifestPath))
	require.NoFileExists(testInstance, manifestPath)
}
