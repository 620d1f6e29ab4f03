// Package logs reads the shotqueue log file for the CLI.
//
// Tail returns the last N records with bounded memory, optionally restricted
// to a single job, and Follow polls for records appended after a known offset
// until the caller's context ends. Both console and JSON log formats are
// understood: console records span a header line plus indented attribute
// lines, and those continuation lines stay attached to their header.
package logs
