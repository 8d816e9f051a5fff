// Package jobs records translation jobs in SQLite so the CLI and HTTP API can
// list what ran, how long it took, and why a job failed.
//
// A job row is created in status running when a file is accepted and moves to
// completed or failed exactly once. The database is history, not a queue: no
// work is resumed from it. Rows left running by a daemon that died are marked
// failed on the next start (see ResetRunning). Schema changes bump
// schemaVersion in schema.go; users delete jobs.db to adopt the new schema.
package jobs
