package clipboard

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind tags the content captured from the clipboard.
type Kind int

const (
	KindImage Kind = iota + 1
	KindFiles
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindFiles:
		return "files"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Payload is the clipboard content captured at the start of a cycle. It is
// written back unchanged by Restore.
type Payload struct {
	Kind Kind
	// Image holds decodable bitmap bytes (a BMP file on Windows, PNG elsewhere).
	Image []byte
	// Native holds the bitmap exactly as the backend read it. Restore writes
	// it back in place of Image when set.
	Native []byte
	// Files holds absolute paths in clipboard order.
	Files []string
}

// ImagePayload wraps encoded bitmap bytes.
func ImagePayload(b []byte) Payload { return Payload{Kind: KindImage, Image: b} }

// BitmapPayload keeps both the decodable image and the backend's own bytes.
func BitmapPayload(img, native []byte) Payload {
	return Payload{Kind: KindImage, Image: img, Native: native}
}

// FilesPayload wraps a list of file paths.
func FilesPayload(paths []string) Payload { return Payload{Kind: KindFiles, Files: paths} }

func (p Payload) String() string {
	switch p.Kind {
	case KindImage:
		return "image (" + humanize.Bytes(uint64(len(p.Image))) + ")"
	case KindFiles:
		return fmt.Sprintf("%d file(s)", len(p.Files))
	default:
		return p.Kind.String()
	}
}
