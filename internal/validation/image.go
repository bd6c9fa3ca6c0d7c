package validation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AllowedImageExtensions are the accepted upload formats.
var AllowedImageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded base64 upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var errNotDataURL = errors.New("upload a valid image as a base64 data URL")

// DecodeImage parses a "data:image/<type>;base64,<payload>" string. The
// payload's sniffed type must agree with the declared one.
func DecodeImage(dataURL string, maxSize int) (*Image, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, errNotDataURL
	}

	declared := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	ext, ok := AllowedImageExtensions[declared]
	if !ok {
		return nil, fmt.Errorf("unsupported image type %q", declared)
	}

	if maxSize > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxSize+2 {
		return nil, imageTooLarge(maxSize)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errNotDataURL
	}
	if len(data) == 0 {
		return nil, errNotDataURL
	}
	if maxSize > 0 && len(data) > maxSize {
		return nil, imageTooLarge(maxSize)
	}

	if sniffed := http.DetectContentType(data); sniffed != declared {
		return nil, fmt.Errorf("image content is %q, not %q", sniffed, declared)
	}

	return &Image{Data: data, ContentType: declared, Ext: ext}, nil
}

func imageTooLarge(maxSize int) error {
	return fmt.Errorf("maximum image size is %.1f MB", float64(maxSize)/(1024*1024))
}
