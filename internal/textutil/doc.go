// Package textutil provides filename and message helpers shared by the CLI,
// the HTTP server, and the engine clients.
//
// SanitizeFileName reduces an uploaded name to a safe base name, OutputName
// derives the translated file's name, and Snippet shortens remote payloads for
// error messages and logs.
package textutil
