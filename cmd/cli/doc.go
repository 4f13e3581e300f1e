// Package cli wires the root Cobra command, configuration loading, and
// structured logging for the gitbackup application.
package cli
