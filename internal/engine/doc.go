// Package engine defines the remote text-generation capability used by the
// translator and the helpers backends share to classify failures.
//
// Backends live in subpackages (gemini, openai, openrouter); Mock answers
// locally for offline runs and tests, and Breaker wraps any Engine with a
// circuit breaker so a failing provider is not hammered by every chunk of a
// large job. The provider package builds the configured engine.
package engine
