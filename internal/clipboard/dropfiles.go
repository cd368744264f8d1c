package clipboard

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// dropFilesHeaderLen is sizeof(DROPFILES): pFiles, POINT pt, fNC, fWide.
const dropFilesHeaderLen = 20

// encodeDropFiles builds CF_HDROP content: a DROPFILES header followed by
// NUL-terminated UTF-16 paths and a final NUL.
func encodeDropFiles(paths []string) []byte {
	var chars []uint16
	for _, p := range paths {
		chars = append(chars, utf16.Encode([]rune(p))...)
		chars = append(chars, 0)
	}
	chars = append(chars, 0)

	out := make([]byte, dropFilesHeaderLen+2*len(chars))
	binary.LittleEndian.PutUint32(out[0:4], dropFilesHeaderLen)
	binary.LittleEndian.PutUint32(out[16:20], 1)
	for i, c := range chars {
		binary.LittleEndian.PutUint16(out[dropFilesHeaderLen+2*i:], c)
	}
	return out
}

// decodeDropFiles parses CF_HDROP content in either wide or ANSI form.
func decodeDropFiles(b []byte) ([]string, error) {
	if len(b) < dropFilesHeaderLen {
		return nil, fmt.Errorf("dropfiles too short: %d bytes", len(b))
	}
	start := binary.LittleEndian.Uint32(b[0:4])
	wide := binary.LittleEndian.Uint32(b[16:20]) != 0
	if start < dropFilesHeaderLen || int(start) > len(b) {
		return nil, fmt.Errorf("dropfiles offset %d out of range", start)
	}
	data := b[start:]

	var paths []string
	if wide {
		var cur []uint16
		for i := 0; i+1 < len(data); i += 2 {
			c := binary.LittleEndian.Uint16(data[i:])
			if c != 0 {
				cur = append(cur, c)
				continue
			}
			if len(cur) == 0 {
				break
			}
			paths = append(paths, string(utf16.Decode(cur)))
			cur = cur[:0]
		}
		return paths, nil
	}

	begin := 0
	for i, c := range data {
		if c != 0 {
			continue
		}
		if i == begin {
			break
		}
		paths = append(paths, string(data[begin:i]))
		begin = i + 1
	}
	return paths, nil
}
