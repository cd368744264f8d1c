package media

import (
	"os"

	"github.com/dustin/go-humanize"

	"github.com/sloganking/ocr-paste/internal/apperr"
)

// CheckSize stats path and rejects empty files and files above limit bytes.
// A file of exactly limit bytes is accepted. A file that cannot be stat'ed
// fails the upload it was meant for.
func CheckSize(path string, limit int64) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, apperr.Wrap(apperr.TranscriptionRequestFailed, err, "stat audio").WithDetail("path", path)
	}
	size := st.Size()
	switch {
	case size == 0:
		return 0, apperr.New(apperr.EmptyPayload, "audio file is empty").WithDetail("path", path)
	case size > limit:
		return size, apperr.New(apperr.PayloadTooLarge, "audio file is %s, limit %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit))).
			WithDetail("path", path).
			WithDetail("size", size).
			WithDetail("limit", limit)
	}
	return size, nil
}
