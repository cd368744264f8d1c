package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier masks as expected by RegisterHotKey.
const (
	ModAlt     uint32 = 0x0001
	ModControl uint32 = 0x0002
	ModShift   uint32 = 0x0004
	ModWin     uint32 = 0x0008
)

// Key is a parsed trigger: modifier mask plus Windows virtual-key code.
type Key struct {
	Mod uint32
	VK  uint32
}

func (k Key) String() string {
	var parts []string
	for _, m := range []struct {
		bit  uint32
		name string
	}{{ModControl, "ctrl"}, {ModAlt, "alt"}, {ModShift, "shift"}, {ModWin, "win"}} {
		if k.Mod&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, fmt.Sprintf("vk=0x%02X", k.VK))
	return strings.Join(parts, "+")
}

var modifierNames = map[string]uint32{
	"alt":     ModAlt,
	"menu":    ModAlt,
	"ctrl":    ModControl,
	"control": ModControl,
	"shift":   ModShift,
	"win":     ModWin,
	"meta":    ModWin,
	"super":   ModWin,
}

var namedKeys = map[string]uint32{
	"esc":       0x1B,
	"escape":    0x1B,
	"space":     0x20,
	"enter":     0x0D,
	"return":    0x0D,
	"tab":       0x09,
	"backspace": 0x08,

	"insert":   0x2D,
	"delete":   0x2E,
	"home":     0x24,
	"end":      0x23,
	"pageup":   0x21,
	"pagedown": 0x22,

	"left":  0x25,
	"up":    0x26,
	"right": 0x27,
	"down":  0x28,

	"pause":       0x13,
	"capslock":    0x14,
	"scrolllock":  0x91,
	"printscreen": 0x2C,

	"add":        0x6B,
	"plus":       0x6B,
	"kpadd":      0x6B,
	"subtract":   0x6D,
	"minus":      0x6D,
	"kpsubtract": 0x6D,
}

// ParseKey accepts strings like "f9", "alt+q", "ctrl+shift+F1" or "num5".
// The last token is the key; every earlier token must be a modifier.
func ParseKey(s string) (Key, error) {
	tokens := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(tokens) == 0 || tokens[len(tokens)-1] == "" {
		return Key{}, fmt.Errorf("empty key")
	}

	var k Key
	for _, t := range tokens[:len(tokens)-1] {
		m, ok := modifierNames[strings.TrimSpace(t)]
		if !ok {
			return Key{}, fmt.Errorf("unknown modifier %q", t)
		}
		k.Mod |= m
	}

	vk, err := virtualKey(strings.TrimSpace(tokens[len(tokens)-1]))
	if err != nil {
		return Key{}, err
	}
	k.VK = vk
	return k, nil
}

func virtualKey(tok string) (uint32, error) {
	if len(tok) == 1 {
		switch c := tok[0]; {
		case c >= 'a' && c <= 'z':
			return uint32(c-'a') + 'A', nil
		case c >= '0' && c <= '9':
			return uint32(c), nil
		}
	}
	if v, ok := namedKeys[tok]; ok {
		return v, nil
	}
	if n, ok := numberedKey(tok, "f"); ok && n >= 1 && n <= 24 {
		return 0x70 + uint32(n-1), nil
	}
	for _, prefix := range []string{"numpad", "num", "kp"} {
		if n, ok := numberedKey(tok, prefix); ok && n >= 0 && n <= 9 {
			return 0x60 + uint32(n), nil
		}
	}
	return 0, fmt.Errorf("unsupported key token %q", tok)
}

func numberedKey(tok, prefix string) (int, bool) {
	if !strings.HasPrefix(tok, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(tok, prefix))
	return n, err == nil
}
