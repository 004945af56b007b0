package receipt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"

	"github.com/diviso/diviso/internal/apperr"
)

const (
	// MaxSide bounds the longest edge sent to OCR.
	MaxSide = 2000
	// maxUpload caps how much of an object is read.
	maxUpload   = 15 << 20
	jpegQuality = 85
)

// Preprocess decodes an uploaded image, applies its EXIF orientation,
// downscales it to fit maxSide and re-encodes it as JPEG.
func Preprocess(r io.Reader, maxSide int) ([]byte, error) {
	img, err := imaging.Decode(io.LimitReader(r, maxUpload), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, err, "unsupported or corrupt image")
	}

	b := img.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
