package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/costkeep/costkeep/internal/receipt"
)

// Extractor runs one end-to-end extraction for a user's photograph
type Extractor interface {
	Extract(ctx context.Context, ownerID string, imageData []byte, contentType string) (*receipt.Receipt, error)
}

// Service ties extraction to persistence. It is the caller of the pipeline:
// it saves successful results, maps nothing, retries nothing.
type Service struct {
	store     receipt.DocumentStore
	images    receipt.ImageStore
	extractor Extractor
}

// NewService creates a new Service
func NewService(store receipt.DocumentStore, images receipt.ImageStore, extractor Extractor) *Service {
	return &Service{
		store:     store,
		images:    images,
		extractor: extractor,
	}
}

// ScanReceipt extracts a receipt from an uploaded photograph and persists
// the result under the user's scope
func (s *Service) ScanReceipt(ctx context.Context, userID string, imageData []byte, contentType string) (*receipt.Receipt, error) {
	rec, err := s.extractor.Extract(ctx, userID, imageData, contentType)
	if err != nil {
		slog.Error("receipt extraction failed",
			"user", userID,
			"content_type", contentType,
			"image_size", len(imageData),
			"error", err,
		)
		return nil, err
	}

	if err := s.store.SaveReceipt(userID, rec); err != nil {
		// No partial record: drop the uploaded image with the failed save
		if rec.ImageURL != "" {
			if delErr := s.images.Delete(rec.ImageURL); delErr != nil {
				slog.Warn("failed to delete image after save failure", "key", rec.ImageURL, "error", delErr)
			}
		}
		return nil, fmt.Errorf("saving receipt: %w", err)
	}

	return rec, nil
}

// ListReceipts returns the user's receipts within [from, to], sorted by date
func (s *Service) ListReceipts(userID string, from, to time.Time) ([]*receipt.Receipt, error) {
	receipts, err := s.store.QueryByDateRange(userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// GetReceipt retrieves a single receipt by ID
func (s *Service) GetReceipt(userID, id string) (*receipt.Receipt, error) {
	rec, err := s.store.GetReceipt(userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return rec, nil
}

// GetReceiptImage retrieves the stored photograph for a receipt
func (s *Service) GetReceiptImage(userID, id string) ([]byte, error) {
	rec, err := s.store.GetReceipt(userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	if rec.ImageURL == "" {
		return nil, fmt.Errorf("receipt %s has no image", id)
	}

	data, err := s.images.Get(rec.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("getting receipt image: %w", err)
	}
	return data, nil
}

// DeleteReceipt removes a receipt and its stored photograph
func (s *Service) DeleteReceipt(userID, id string) error {
	rec, err := s.store.GetReceipt(userID, id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if rec.ImageURL != "" {
		if err := s.images.Delete(rec.ImageURL); err != nil {
			// Record deletion still proceeds
			slog.Warn("failed to delete receipt image", "key", rec.ImageURL, "error", err)
		}
	}

	if err := s.store.DeleteReceipt(userID, id); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}
	return nil
}
