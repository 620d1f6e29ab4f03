// Package config loads, normalizes, and validates shotqueue bootstrap
// configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SHOTQUEUE_DATA_DIR environment
// fallback. The Config type covers what the process needs before the queue
// database is open: where the database lives, which SQLite pragmas to apply,
// queue dispatch defaults, and log output.
//
// Runtime settings that collaborators edit (API keys, endpoints, poll
// interval) are not part of this package; they live in the queue database and
// are managed through queue.Store.
package config
