package extraction

import "context"

// ModelClient is the external generative model collaborator. It makes a
// single inference call with an image and prompt and returns whatever text
// the model produced; no guarantee is made about the output shape.
type ModelClient interface {
	// Generate invokes the model with a PNG image and prompt text
	Generate(ctx context.Context, imagePNG []byte, prompt string) (string, error)

	// Close releases client resources
	Close() error
}
