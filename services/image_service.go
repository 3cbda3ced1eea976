package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"

	"github.com/kendall-kelly/tableside-api/utils"
)

// ErrImageStorageDisabled is returned when no bucket is configured for menu photos
var ErrImageStorageDisabled = errors.New("image storage is not configured")

// ImageService uploads menu photos and resolves their links
type ImageService struct {
	store ObjectStore
}

// NewImageService creates an image service. A nil store disables uploads.
func NewImageService(store ObjectStore) *ImageService {
	return &ImageService{store: store}
}

// UploadImage validates the photo and stores it under menu/, returning the object key
func (s *ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if s == nil || s.store == nil {
		return "", ErrImageStorageDisabled
	}
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("menu/%s%s", uuid.NewString(), utils.ImageExt(fileHeader.Filename))
	if err := s.store.PutObject(ctx, key, content, utils.ImageContentType(fileHeader.Filename)); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

// ImageURL returns a browser link for a stored photo. Absolute URLs are returned as they are.
func (s *ImageService) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" || isAbsoluteURL(key) {
		return key, nil
	}
	if s == nil || s.store == nil {
		return "", ErrImageStorageDisabled
	}
	url, err := s.store.PresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage removes a stored photo; absolute URLs point elsewhere and are left alone
func (s *ImageService) DeleteImage(ctx context.Context, key string) error {
	if key == "" || isAbsoluteURL(key) || s == nil || s.store == nil {
		return nil
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
