package services

import (
	"context"
	"encoding/json"
	"fmt"
)

// ReceiptArchive stores paid invoices for later lookup
type ReceiptArchive interface {
	Archive(ctx context.Context, receipt *InvoiceView) (string, error)
	// URL returns a link to a stored receipt
	URL(ctx context.Context, key string) (string, error)
}

// ReceiptKey is the object key a receipt is stored under
func ReceiptKey(receipt *InvoiceView) string {
	at := receipt.CreatedAt
	if receipt.PaidAt != nil {
		at = *receipt.PaidAt
	}
	return fmt.Sprintf("receipts/%s/%s.json", at.UTC().Format("2006/01"), receipt.Code)
}

// ObjectReceiptArchive writes receipts as JSON objects to an ObjectStore
type ObjectReceiptArchive struct {
	store ObjectStore
}

// NewObjectReceiptArchive creates an archive over store
func NewObjectReceiptArchive(store ObjectStore) *ObjectReceiptArchive {
	return &ObjectReceiptArchive{store: store}
}

// Archive implements ReceiptArchive
func (a *ObjectReceiptArchive) Archive(ctx context.Context, receipt *InvoiceView) (string, error) {
	body, err := json.Marshal(receipt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal receipt: %w", err)
	}
	key := ReceiptKey(receipt)
	if err := a.store.PutObject(ctx, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// URL implements ReceiptArchive
func (a *ObjectReceiptArchive) URL(ctx context.Context, key string) (string, error) {
	return a.store.PresignedURL(ctx, key)
}

// NoopReceiptArchive discards receipts; used when no bucket is configured
type NoopReceiptArchive struct{}

// Archive implements ReceiptArchive
func (NoopReceiptArchive) Archive(_ context.Context, receipt *InvoiceView) (string, error) {
	return ReceiptKey(receipt), nil
}

// URL implements ReceiptArchive
func (NoopReceiptArchive) URL(_ context.Context, _ string) (string, error) {
	return "", ErrReceiptArchiveDisabled
}
