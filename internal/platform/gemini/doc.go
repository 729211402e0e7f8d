// Package gemini implements generation.Backend on top of Google's Gemini API
// using the google.golang.org/genai client.
//
// The backend is an infrastructure adapter: it constructs model handles,
// sends a single prompt per call and translates SDK errors into the
// generation error taxonomy so the client can decide between retrying,
// moving to the next candidate and falling back.
//
// Handle construction never generates content. Without an API key it fails
// with generation.ErrNoCredential before any network call; retired models
// fail with generation.ErrModelUnavailable. When probing is enabled the
// backend confirms a model exists with a metadata lookup.
package gemini
