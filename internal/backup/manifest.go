package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	manifestSerializationErrorTemplateConstant = "unable to serialize manifest: %w"
	manifestTemporaryErrorTemplateConstant     = "unable to stage manifest file: %w"
	manifestRenameErrorTemplateConstant        = "unable to finalize manifest file: %w"
	manifestTemporaryFilePatternConstant       = "manifest-*.json.tmp"
	manifestIndentConstant                     = "  "
	manifestFilePermissionsConstant            = 0o644
)

// ManifestBuilder accumulates backup entries in discovery order and writes the
// finished manifest exactly once.
type ManifestBuilder struct {
	manifest Manifest
}

// NewManifestBuilder constructs an empty manifest for one run.
func NewManifestBuilder(organization string, runTimestamp string) *ManifestBuilder {
	return &ManifestBuilder{
		manifest: Manifest{
			Organization: organization,
			Timestamp:    runTimestamp,
			Entries:      []BackupEntry{},
		},
	}
}

// Append records one scheduled backup attempt and returns its entry index.
func (builder *ManifestBuilder) Append(entry BackupEntry) int {
	builder.manifest.Entries = append(builder.manifest.Entries, entry)
	return len(builder.manifest.Entries) - 1
}

// SetEntryStatus promotes the status of a previously appended entry.
func (builder *ManifestBuilder) SetEntryStatus(entryIndex int, status EntryStatus) {
	if entryIndex < 0 || entryIndex >= len(builder.manifest.Entries) {
		return
	}
	builder.manifest.Entries[entryIndex].Status = status
}

// EntryCount reports the number of scheduled backup attempts.
func (builder *ManifestBuilder) EntryCount() int {
	return len(builder.manifest.Entries)
}

// Manifest returns a copy of the accumulated manifest.
func (builder *ManifestBuilder) Manifest() Manifest {
	duplicatedEntries := make([]BackupEntry, len(builder.manifest.Entries))
	copy(duplicatedEntries, builder.manifest.Entries)
	manifestCopy := builder.manifest
	manifestCopy.Entries = duplicatedEntries
	return manifestCopy
}

// Write serializes the manifest to manifestPath. The write is all-or-nothing:
// content lands in a temporary file first and is renamed into place.
func (builder *ManifestBuilder) Write(manifestPath string) error {
	serializedManifest, serializationError := json.MarshalIndent(builder.manifest, "", manifestIndentConstant)
	if serializationError != nil {
		return fmt.Errorf(manifestSerializationErrorTemplateConstant, serializationError)
	}

	manifestDirectory := filepath.Dir(manifestPath)
	temporaryFile, temporaryError := os.CreateTemp(manifestDirectory, manifestTemporaryFilePatternConstant)
	if temporaryError != nil {
		return fmt.Errorf(manifestTemporaryErrorTemplateConstant, temporaryError)
	}

	temporaryPath := temporaryFile.Name()
	_, writeError := temporaryFile.Write(serializedManifest)
	closeError := temporaryFile.Close()
	if writeError != nil || closeError != nil {
		os.Remove(temporaryPath)
		if writeError != nil {
			return fmt.Errorf(manifestTemporaryErrorTemplateConstant, writeError)
		}
		return fmt.Errorf(manifestTemporaryErrorTemplateConstant, closeError)
	}

	if permissionsError := os.Chmod(temporaryPath, manifestFilePermissionsConstant); permissionsError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(manifestTemporaryErrorTemplateConstant, permissionsError)
	}

	if renameError := os.Rename(temporaryPath, manifestPath); renameError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(manifestRenameErrorTemplateConstant, renameError)
	}

	return nil
}
