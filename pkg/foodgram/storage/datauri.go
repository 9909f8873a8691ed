package storage

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest decoded image accepted.
const MaxImageSize = 5 << 20

var (
	ErrInvalidImage     = errors.New("image must be a base64 encoded data URI")
	ErrImageTooLarge    = errors.New("image exceeds 5 MiB")
	ErrUnsupportedImage = errors.New("image must be PNG, JPEG, GIF or WebP")
)

// allowedImages maps accepted content types to the file extension they are stored with.
var allowedImages = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI decodes "data:image/<type>;base64,<payload>" or a bare base64
// payload. The content type is sniffed from the bytes; the declared one is
// only required to be an image type.
func DecodeDataURI(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidImage
	}

	payload := s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, ErrInvalidImage
		}
		declared := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		if !strings.HasPrefix(declared, "image/") {
			return nil, ErrUnsupportedImage
		}
		payload = data
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+2 {
		return nil, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidImage
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	for ct, ext := range allowedImages {
		if mtype.Is(ct) {
			return &Image{Data: data, ContentType: ct, Ext: ext}, nil
		}
	}
	return nil, ErrUnsupportedImage
}
