package extraction

import (
	"context"
	"log/slog"

	"github.com/costkeep/costkeep/internal/receipt"
)

// Uploader is the storage collaborator the orchestrator needs: persist the
// original image bytes for an owner and hand back a stable reference.
type Uploader interface {
	Upload(ctx context.Context, data []byte, ownerID string) (string, error)
}

// Extractor owns the end-to-end pipeline for a single scan: upload the
// photograph, invoke the model, parse and normalize, attach the image
// reference. Each call is independent and stateless; no stage retries
// internally.
type Extractor struct {
	model      ModelClient
	storage    Uploader
	normalizer *Normalizer
}

// NewExtractor creates an Extractor from its collaborators
func NewExtractor(model ModelClient, storage Uploader, normalizer *Normalizer) *Extractor {
	return &Extractor{
		model:      model,
		storage:    storage,
		normalizer: normalizer,
	}
}

// Extract runs one extraction attempt for the given owner's photograph.
// Failures are classified into the typed error surface: UploadError before
// any model call, ModelError for a failed or empty inference,
// MalformedResponseError and InvalidDateError propagated unchanged from
// parsing and normalization.
func (e *Extractor) Extract(ctx context.Context, ownerID string, imageData []byte, contentType string) (*receipt.Receipt, error) {
	imageURL, err := e.storage.Upload(ctx, imageData, ownerID)
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	imagePNG, err := prepareImagePNG(imageData, contentType)
	if err != nil {
		return nil, &ModelError{Err: err}
	}

	rawText, err := e.model.Generate(ctx, imagePNG, extractionPrompt)
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	if rawText == "" {
		return nil, &ModelError{Err: ErrEmptyModelResponse}
	}

	intermediate, err := ParseResponse(rawText)
	if err != nil {
		return nil, err
	}

	rec, err := e.normalizer.Normalize(intermediate)
	if err != nil {
		return nil, err
	}

	rec.ImageURL = imageURL
	slog.Debug("extraction complete",
		"receipt_id", rec.ID,
		"store", rec.StoreName,
		"items", len(rec.Items),
	)
	return rec, nil
}

// Close releases the model client
func (e *Extractor) Close() error {
	return e.model.Close()
}
