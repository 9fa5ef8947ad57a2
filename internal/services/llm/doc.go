// Package llm generates video scripts through an OpenAI-compatible chat
// completions endpoint. Requests are single-shot: retry policy belongs to
// the workflow orchestrator, not this client.
package llm
