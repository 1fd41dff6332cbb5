package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// ImageConstraints bounds profile picture uploads.
var ImageConstraints = struct {
	AllowedMimeTypes map[string]string
	MaxSize          int64
}{
	AllowedMimeTypes: map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	},
	MaxSize: 5 << 20,
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// ValidateImage sniffs the upload's content type from its first bytes and
// returns it. The extension must also look like an image.
func ValidateImage(header *multipart.FileHeader) (string, error) {
	if header.Size > ImageConstraints.MaxSize {
		return "", fmt.Errorf("file too large: maximum size is %d MB", ImageConstraints.MaxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %q", ext)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	if _, ok := ImageConstraints.AllowedMimeTypes[detected]; !ok {
		return "", fmt.Errorf("invalid file type (detected: %s)", detected)
	}
	return detected, nil
}
