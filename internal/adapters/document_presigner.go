package adapters

import (
	"context"

	"legal_intake_backend/internal/adapters/storage"
	"legal_intake_backend/internal/lifecycle/pipeline"
)

// DocumentPresigner generates presigned download URLs for opportunity documents.
type DocumentPresigner struct {
	storage storage.StorageService
	bucket  string
}

// NewDocumentPresigner creates a new document presigner adapter.
func NewDocumentPresigner(storageSvc storage.StorageService, bucket string) *DocumentPresigner {
	return &DocumentPresigner{storage: storageSvc, bucket: bucket}
}

// DocumentURL generates a presigned download URL for the given object key.
func (p *DocumentPresigner) DocumentURL(ctx context.Context, objectKey string) (string, error) {
	presigned, err := p.storage.GenerateDownloadURL(ctx, p.bucket, objectKey)
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

// Compile-time check that DocumentPresigner implements pipeline.DocumentLinker.
var _ pipeline.DocumentLinker = (*DocumentPresigner)(nil)
