// Package main hosts the shotqueue CLI entrypoint and command graph.
//
// The Cobra-based command tree opens the queue store directly for every
// invocation: it records trends, enqueues and transitions jobs, edits the
// runtime settings persisted in the database, and prints dashboard counts and
// database health. Configuration resolution, the optional --db override, and
// structured logging setup live in commandContext so subcommands only deal
// with presentation.
//
// Keep this package lean: add behavior to internal/queue first, then surface
// it here.
package main
