// Package pipeline turns one uploaded subtitle file into a translated SRT
// document. It owns the job lifecycle: parse, chunk, translate concurrently,
// reassemble, and record the outcome in the jobs store.
package pipeline
