// Package daemon runs the long-lived TransSRT HTTP service.
//
// It wires configuration, the job history store, and the translation engine
// into a single lifecycle with flock-based locking to prevent multiple
// instances sharing one data directory. The HTTP surface is small:
//
//	POST /translate      multipart upload (field "file"), replies with the SRT
//	OPTIONS /translate   CORS preflight
//	GET /health          liveness plus engine and job summary
//	GET /api/jobs        job history, newest first
//	GET /api/jobs/{id}   one job by ID or unique prefix
//
// The engine is built on first use and reused, so a missing API key surfaces
// as a MISSING_API_KEY reply instead of preventing startup, and the circuit
// breaker state survives across requests.
package daemon
