// Package openrouter talks to OpenRouter's chat-completions endpoint with a
// plain HTTP client. Any OpenAI-shaped endpoint that accepts a bearer token
// works when base_url points at it.
package openrouter
