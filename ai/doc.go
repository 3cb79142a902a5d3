// Package ai provides the text-embedding abstraction used by the ingestion
// pipeline and the query client.
//
// The Embedder interface decouples the pipeline from any particular model
// host. Two implementations ship with the harness:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: deterministic test doubles requiring no external service
//
// Public constructors return the Embedder interface; test constructors
// return concrete types so tests can inject behavior and assert on calls.
package ai
