// Package llm abstracts the language-model backend used by the plan
// generators and the evaluation judge. Everything upstream depends on the
// Client interface; the Gemini implementation lives in gemini.go and tests
// substitute a stub.
package llm

import "context"

// Client generates a structured JSON object from a prompt.
type Client interface {
	// GenerateObject sends prompt to the model, instructs it to answer
	// with a single JSON object, and unmarshals that object into out.
	// out must be a pointer.
	GenerateObject(ctx context.Context, prompt string, out any) error
}
