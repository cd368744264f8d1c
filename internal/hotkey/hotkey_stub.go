//go:build !windows

package hotkey

import "fmt"

// Listen is not supported on non-Windows builds; use the once or file
// commands there instead.
func Listen(trigger string, hook bool, onPress func(), debug bool) error {
	if _, err := ParseKey(trigger); err != nil {
		return fmt.Errorf("invalid hotkey '%s': %w", trigger, err)
	}
	return fmt.Errorf("global hotkey not supported on this platform")
}
