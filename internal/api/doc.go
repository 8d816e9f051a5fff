// Package api defines the HTTP wire format shared by the daemon and the CLI.
//
// It converts job history records into transport DTOs with camelCase JSON
// tags, and maps classified errors onto the user-visible error codes and HTTP
// statuses returned by POST /translate:
//
//	{"error": {"code": "RATE_LIMIT_EXCEEDED", "message": "..."}}
//
// Timestamps are RFC3339 with milliseconds in UTC. Durations are reported in
// milliseconds.
package api
