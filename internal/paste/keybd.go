package paste

import (
	"fmt"
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

// KeybdInjector sends key events through micmonay/keybd_event. The library
// only pairs keys with modifiers, so Ctrl and V are driven by separate
// bondings.
type KeybdInjector struct {
	ctrl keybd_event.KeyBonding
	v    keybd_event.KeyBonding
}

// NewKeybdInjector prepares the bondings.
func NewKeybdInjector() (*KeybdInjector, error) {
	ctrl, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("keyboard init: %w", err)
	}
	v, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("keyboard init: %w", err)
	}
	if runtime.GOOS == "linux" {
		// uinput needs time before the new device receives events.
		time.Sleep(2 * time.Second)
	}
	ctrl.HasCTRL(true)
	v.SetKeys(keybd_event.VK_V)
	return &KeybdInjector{ctrl: ctrl, v: v}, nil
}

func (k *KeybdInjector) bonding(key Key) (*keybd_event.KeyBonding, error) {
	switch key {
	case KeyControl:
		return &k.ctrl, nil
	case KeyV:
		return &k.v, nil
	}
	return nil, fmt.Errorf("unsupported key %s", key)
}

func (k *KeybdInjector) KeyDown(key Key) error {
	b, err := k.bonding(key)
	if err != nil {
		return err
	}
	return b.Press()
}

func (k *KeybdInjector) KeyUp(key Key) error {
	b, err := k.bonding(key)
	if err != nil {
		return err
	}
	return b.Release()
}
