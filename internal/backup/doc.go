// Package backup implements the organization backup pipeline.
//
// It defines the catalog, archive, upload, and notification contracts, the
// manifest of attempted repository backups, and the Orchestrator that drives
// one run from enumeration through cleanup.
package backup
