package clipboard

import (
	"net/url"
	"path/filepath"
	"strings"
)

// parseURIList extracts local paths from text/uri-list style content, as
// file managers place it on the clipboard. ok is false unless every
// non-comment line is a file:// URI.
func parseURIList(text string) (paths []string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			return nil, false
		}
		paths = append(paths, filepath.FromSlash(u.Path))
	}
	return paths, len(paths) > 0
}

func formatURIList(paths []string) string {
	lines := make([]string, len(paths))
	for i, p := range paths {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
		lines[i] = u.String()
	}
	return strings.Join(lines, "\n")
}
