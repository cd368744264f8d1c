package media

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-audio/wav"
)

// Describe summarises a media file for logs: its size, plus the duration
// for WAV files.
func Describe(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "unreadable"
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "unreadable"
	}
	desc := humanize.IBytes(uint64(st.Size()))
	if Ext(path) != "wav" {
		return desc
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return desc + ", invalid wav"
	}
	dur, err := d.Duration()
	if err != nil {
		return desc
	}
	return fmt.Sprintf("%s, %s, %d Hz", desc, dur.Round(10*time.Millisecond), d.SampleRate)
}
