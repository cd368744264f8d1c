package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify(t *testing.T) {
	var got []string
	n := New(true, "ocr-paste")
	n.send = func(title, message string) error {
		got = append(got, title+": "+message)
		return errors.New("no notification daemon")
	}
	n.Notify("Pasted 12 characters")
	assert.Equal(t, []string{"ocr-paste: Pasted 12 characters"}, got)

	n.enabled = false
	n.Notify("ignored")
	assert.Len(t, got, 1)

	var nilNotifier *Notifier
	assert.NotPanics(t, func() { nilNotifier.Notify("x") })
}
