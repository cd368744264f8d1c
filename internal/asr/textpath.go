package asr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// extractText decodes a JSON body and returns the scalar at path. Paths are
// dot-separated keys with optional indexes: "text", "segments[0].text".
func extractText(body []byte, path string) (string, bool) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", false
	}
	return lookup(root, path)
}

func lookup(root any, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := root
	for _, token := range strings.Split(path, ".") {
		key, idxs, err := splitIndexes(token)
		if err != nil {
			return "", false
		}
		if key != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return "", false
			}
			if cur, ok = m[key]; !ok {
				return "", false
			}
		}
		for _, i := range idxs {
			arr, ok := cur.([]any)
			if !ok || i < 0 || i >= len(arr) {
				return "", false
			}
			cur = arr[i]
		}
	}

	switch v := cur.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// splitIndexes parses "foo[0][1]" into "foo" and [0 1].
func splitIndexes(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty path segment")
	}
	key, rest, found := strings.Cut(token, "[")
	if !found {
		return key, nil, nil
	}
	rest = "[" + rest

	var idxs []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("invalid index syntax in %q", token)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, fmt.Errorf("missing ] in %q", token)
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, fmt.Errorf("invalid index %q in %q", rest[1:end], token)
		}
		idxs = append(idxs, n)
		rest = rest[end+1:]
	}
	return key, idxs, nil
}
