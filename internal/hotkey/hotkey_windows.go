//go:build windows

package hotkey

import (
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
	"time"
	"unsafe"
)

const (
	triggerID = 1

	whKeyboardLL  = 13
	wmHotkey      = 0x0312
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	llkhfInjected = 0x10

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C
)

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procRegisterHotKey      = user32.NewProc("RegisterHotKey")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

type kbdLLHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

// Listen registers the trigger key and calls onPress from the listener
// thread for every press. It returns once registration has succeeded or
// failed; onPress must return quickly.
func Listen(trigger string, hook bool, onPress func(), debug bool) error {
	key, err := ParseKey(trigger)
	if err != nil {
		return fmt.Errorf("invalid hotkey '%s': %w", trigger, err)
	}
	log := slog.With("component", "hotkey")
	if debug {
		log.Debug("parsed trigger", "trigger", trigger, "key", key.String())
	}

	errCh := make(chan error, 1)
	if hook {
		go lowLevelHookLoop(key, onPress, errCh, log, debug)
	} else {
		go registerHotKeyLoop(key, onPress, errCh, log, debug)
	}

	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timeout registering hotkey '%s'", trigger)
	}
}

func registerHotKeyLoop(key Key, onPress func(), errCh chan<- error, log *slog.Logger, debug bool) {
	// RegisterHotKey binds to the calling thread's message queue.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r, _, callErr := procRegisterHotKey.Call(0, triggerID, uintptr(key.Mod), uintptr(key.VK))
	if r == 0 {
		errCh <- fmt.Errorf("RegisterHotKey failed for %s: %v", key, callErr)
		return
	}
	log.Info("registered global hotkey", "key", key.String())
	errCh <- nil

	var msg winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			log.Warn("GetMessageW stopped; exiting hotkey loop")
			return
		}
		if debug {
			log.Debug("message", "message", fmt.Sprintf("0x%X", msg.Message), "wparam", msg.WParam)
		}
		if msg.Message == wmHotkey && msg.WParam == triggerID {
			onPress()
		}
	}
}

func lowLevelHookLoop(key Key, onPress func(), errCh chan<- error, log *slog.Logger, debug bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pressed := func(vk uintptr) bool {
		st, _, _ := procGetAsyncKeyState.Call(vk)
		return st&0x8000 != 0
	}
	modsHeld := func() bool {
		if key.Mod&ModControl != 0 && !pressed(vkControl) {
			return false
		}
		if key.Mod&ModAlt != 0 && !pressed(vkMenu) {
			return false
		}
		if key.Mod&ModShift != 0 && !pressed(vkShift) {
			return false
		}
		if key.Mod&ModWin != 0 && !pressed(vkLWin) && !pressed(vkRWin) {
			return false
		}
		return true
	}

	// The keyup matching a swallowed keydown is swallowed too so the
	// foreground application never sees half a keystroke.
	swallowed := false

	callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) < 0 {
			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		}
		k := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		// Our own simulated Ctrl+V must pass through untouched.
		if k.flags&llkhfInjected == 0 && k.vkCode == key.VK {
			switch uint32(wParam) {
			case wmKeyDown, wmSysKeyDown:
				if modsHeld() {
					if debug {
						log.Debug("swallowed keydown", "vk", fmt.Sprintf("0x%X", k.vkCode))
					}
					swallowed = true
					onPress()
					return 1
				}
			case wmKeyUp, wmSysKeyUp:
				if swallowed {
					swallowed = false
					return 1
				}
			}
		}
		ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})

	hook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, callback, 0, 0)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookExW failed: %v", callErr)
		return
	}
	log.Info("low-level keyboard hook installed", "key", key.String())
	errCh <- nil

	var msg winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}
	procUnhookWindowsHookEx.Call(hook)
	log.Info("low-level keyboard hook uninstalled")
}
