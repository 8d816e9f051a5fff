// Package translator runs a batch of subtitle chunks through an engine.
//
// Every chunk gets its own goroutine; a weighted semaphore bounds how many
// engine calls are in flight at once, and only the call itself holds a permit.
// Each chunk retries rate-limit and timeout failures with exponential backoff
// and fails permanently on anything else, including replies that do not carry
// exactly one numbered line per entry. The batch is all-or-nothing: results
// come back in chunk order only when every chunk succeeded.
package translator
