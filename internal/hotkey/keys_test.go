package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	cases := []struct {
		in   string
		want Key
	}{
		{"f9", Key{VK: 0x78}},
		{"F1", Key{VK: 0x70}},
		{"f24", Key{VK: 0x87}},
		{"alt+q", Key{Mod: ModAlt, VK: 'Q'}},
		{"ctrl+shift+o", Key{Mod: ModControl | ModShift, VK: 'O'}},
		{" Win + 5 ", Key{Mod: ModWin, VK: '5'}},
		{"esc", Key{VK: 0x1B}},
		{"numpad5", Key{VK: 0x65}},
		{"num0", Key{VK: 0x60}},
		{"kpadd", Key{VK: 0x6B}},
		{"pause", Key{VK: 0x13}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseKey(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseKeyErrors(t *testing.T) {
	for _, in := range []string{"", "ctrl+", "hyper+a", "f25", "f0", "banana"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseKey(in)
			assert.Error(t, err)
		})
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "ctrl+shift+vk=0x4F", Key{Mod: ModControl | ModShift, VK: 'O'}.String())
	assert.Equal(t, "vk=0x78", Key{VK: 0x78}.String())
}
