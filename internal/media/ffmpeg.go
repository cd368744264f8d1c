package media

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"

	execute "github.com/alexellis/go-execute/v2"

	"github.com/sloganking/ocr-paste/internal/apperr"
	"github.com/sloganking/ocr-paste/internal/tempfile"
)

// ExtractAudio demuxes the audio track of a video into an MP3 artifact.
func (p *Preparer) ExtractAudio(ctx context.Context, in string) (*tempfile.Artifact, error) {
	art, err := p.tmp.Acquire(tempfile.PrefixExtracted, ".mp3")
	if err != nil {
		return nil, err
	}
	args := []string{"-i", in, "-vn", "-q:a", "0", "-y", art.Path()}
	if err := p.ffmpegRun(ctx, args, in); err != nil {
		art.Release()
		return nil, err
	}
	return art, nil
}

// NormalizeAudio returns a path the transcription backend accepts. Native
// formats come back unchanged with a nil artifact; anything else is
// re-encoded to 44.1 kHz stereo 192k MP3.
func (p *Preparer) NormalizeAudio(ctx context.Context, in string) (string, *tempfile.Artifact, error) {
	if p.IsNative(in) {
		return in, nil, nil
	}
	art, err := p.tmp.Acquire(tempfile.PrefixConverted, ".mp3")
	if err != nil {
		return "", nil, err
	}
	args := []string{"-i", in, "-vn", "-ar", "44100", "-ac", "2", "-b:a", "192k", "-f", "mp3", "-y", art.Path()}
	if err := p.ffmpegRun(ctx, args, in); err != nil {
		art.Release()
		return "", nil, err
	}
	return art.Path(), art, nil
}

func (p *Preparer) ffmpegRun(ctx context.Context, args []string, in string) error {
	if p.debug {
		p.log.Debug("executing", "cmd", p.ffmpeg+" "+strings.Join(args, " "))
	}
	res, err := p.run(ctx, execute.ExecTask{Command: p.ffmpeg, Args: args})
	if err != nil {
		if ToolMissing(p.ffmpeg, err) {
			return apperr.Wrap(apperr.ConversionToolMissing, err, "ffmpeg not found").
				WithDetail("cmd", p.ffmpeg)
		}
		return apperr.Wrap(apperr.ConversionFailed, err, "start ffmpeg").WithDetail("input", in)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.ConversionFailed, "ffmpeg exited with code %d", res.ExitCode).
			WithDetail("input", in).
			WithDetail("exit_code", res.ExitCode).
			WithDetail("stderr", Tail(res.Stderr, 2000))
	}
	return nil
}

// ToolMissing reports whether err from starting cmd means cmd is not
// installed. The start error is checked first, then cmd is looked up again
// in case the runner reworded it.
func ToolMissing(cmd string, err error) bool {
	if IsNotFound(err) {
		return true
	}
	_, lerr := exec.LookPath(cmd)
	return lerr != nil
}

// IsNotFound reports whether a start error means the executable is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// Tail returns at most the last n bytes of s.
func Tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
