// Package generation resolves and calls external LLM services for exam-paper
// content. It defines the Backend and Model interfaces implemented by the
// provider packages (Gemini, OpenAI), the per-request Selector that walks an
// ordered candidate list, and the Client that bounds each call with a timeout,
// classifies failures and retries rate limits and transient errors with
// exponential backoff.
//
// Subpackages build the prompt (prompt), split the combined response into
// paper and answer key (answerkey) and produce offline template papers when
// no model can serve a request (fallback).
package generation
