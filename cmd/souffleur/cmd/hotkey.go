package cmd

import (
	"fmt"
	"runtime"

	"golang.design/x/hotkey"

	"github.com/msto63/souffleur/pkg/core/logging"
)

// registerToggleHotkey binds Ctrl+Shift+L to toggle. The returned function
// unregisters it.
// On macOS the hotkey library needs the main thread, which the TUI owns,
// so the global hotkey is skipped there and the in-app key is used instead.
func registerToggleHotkey(toggle func(), logger *logging.Logger) (func(), error) {
	if runtime.GOOS == "darwin" {
		logger.Info("Global hotkey disabled on macOS (press space in the TUI)")
		return func() {}, nil
	}

	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyL)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("failed to register hotkey: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-hk.Keydown():
				logger.Debug("Hotkey pressed")
				toggle()
			case <-done:
				return
			}
		}
	}()

	logger.Info("Hotkey registered", "shortcut", "Ctrl+Shift+L")
	return func() {
		close(done)
		hk.Unregister()
	}, nil
}
