// Package logs reads the daemon's JSON log file for `transsrt logs`.
//
// Tail returns the last N lines and, in follow mode, polls for appended lines
// until the context ends. Filter narrows JSON records to one job, component,
// or minimum level; FormatLine renders a record as a single readable line.
package logs
