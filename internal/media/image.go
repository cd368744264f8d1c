package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/tempfile"
)

// DecodeAndSavePNG decodes clipboard bitmap bytes (BMP, PNG, JPEG or GIF)
// and writes them as PNG into a new artifact. The artifact is released on
// every failure path.
func (p *Preparer) DecodeAndSavePNG(bitmap []byte) (*tempfile.Artifact, error) {
	mt := mimetype.Detect(bitmap)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, apperr.New(apperr.ImageDecodeFailed, "clipboard bitmap is not an image").
			WithDetail("mime", mt.String()).
			WithDetail("bytes", len(bitmap))
	}

	img, format, err := image.Decode(bytes.NewReader(bitmap))
	if err != nil {
		return nil, apperr.Wrap(apperr.ImageDecodeFailed, err, "decode bitmap").
			WithDetail("mime", mt.String())
	}
	p.log.Debug("decoded bitmap", "format", format, "bounds", img.Bounds().String())

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperr.Wrap(apperr.ImageEncodeFailed, err, "encode png")
	}

	art, err := p.tmp.Acquire(tempfile.PrefixOCR, ".png")
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(p.tmp.Fs(), art.Path(), buf.Bytes(), 0o600); err != nil {
		art.Release()
		return nil, apperr.Wrap(apperr.ImageEncodeFailed, err, "write png").
			WithDetail("path", art.Path())
	}
	return art, nil
}
