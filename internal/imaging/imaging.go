// Package imaging inspects uploaded image bytes.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yongikim/photolio-lambda-functions/internal/model"
)

// Info describes an image.
type Info struct {
	Width    int
	Height   int
	MIMEType string
}

// Inspect detects the MIME type of body and reads its dimensions without decoding pixels.
// Image formats with no registered decoder (webp, heic) are accepted with zero
// dimensions. Non-images and corrupt gif, jpeg or png bodies yield model.ErrValidation.
func Inspect(body []byte) (Info, error) {
	if len(body) == 0 {
		return Info{}, model.NewValidationError("image", "is empty")
	}
	mt := mimetype.Detect(body)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Info{}, model.NewValidationError("image", fmt.Sprintf("has unsupported type %s", mt.String()))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if errors.Is(err, image.ErrFormat) {
		return Info{MIMEType: mt.String()}, nil
	}
	if err != nil {
		return Info{}, model.NewValidationError("image", fmt.Sprintf("cannot be decoded: %v", err))
	}
	return Info{Width: cfg.Width, Height: cfg.Height, MIMEType: mt.String()}, nil
}
