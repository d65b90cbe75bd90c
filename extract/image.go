package extract

import (
	"context"
	"strings"

	"github.com/poiesic/docket/ai"
)

var imageMimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
}

// ImageExtractor describes images with a vision model.
type ImageExtractor struct {
	describer ai.ImageDescriber
}

// NewImageExtractor creates an ImageExtractor over describer.
func NewImageExtractor(describer ai.ImageDescriber) *ImageExtractor {
	return &ImageExtractor{describer: describer}
}

// Extract returns the model's description of the image.
func (e *ImageExtractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	mimeType, ok := imageMimeTypes[Extension(name)]
	if !ok {
		mimeType = "application/octet-stream"
	}
	description, err := e.describer.DescribeImage(ctx, mimeType, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(description) == "" {
		return "", ErrNoText
	}
	return description, nil
}
