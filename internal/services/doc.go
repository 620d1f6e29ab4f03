// Package services defines error markers and context helpers shared by the
// queue store, the CLI, and the external collaborators that process jobs.
//
// Wrap tags an error with a marker such as ErrValidation so callers can
// classify it with errors.Is; ExitCode turns that classification into the
// CLI's exit status. The context helpers stamp job IDs, stage names, and
// correlation identifiers onto a context so the logging package can attach
// them to every line emitted while that job is being handled.
package services
