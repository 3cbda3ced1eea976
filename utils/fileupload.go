package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// MaxImageSize is 5MB in bytes
const MaxImageSize = 5 * 1024 * 1024

// imageTypes maps the accepted menu photo extensions to their content type
var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile checks the size and extension of an uploaded menu photo
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxImageSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxImageSize/(1024*1024)),
		}
	}

	if _, ok := imageTypes[ImageExt(fileHeader.Filename)]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG, JPEG and WebP images are allowed",
		}
	}

	return nil
}

// ImageExt returns the lower-cased extension of filename
func ImageExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ImageContentType returns the content type for an accepted image filename
func ImageContentType(filename string) string {
	if ct, ok := imageTypes[ImageExt(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ReadUploadedFile reads the whole upload into memory
func ReadUploadedFile(fileHeader *multipart.FileHeader) (content []byte, err error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close uploaded file: %w", closeErr)
		}
	}()

	content, err = io.ReadAll(io.LimitReader(src, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(content) > MaxImageSize {
		return nil, &FileUploadError{Code: "FILE_TOO_LARGE", Message: "File is larger than its declared size"}
	}
	return content, nil
}
