//go:build !windows

package clip

import (
	"log/slog"
	"runtime"

	"golang.design/x/clipboard"
)

type designBackend struct{}

// New returns the golang.design/x/clipboard backend, or a headless backend if
// no display is available (e.g. a server without X11 or Wayland).
// clipboard.Init is called here rather than in init() so that decoding an
// explicit URL never touches the display.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headlessBackend{}
	}
	return designBackend{}
}

func (designBackend) Name() string { return runtime.GOOS + " clipboard" }

func (designBackend) ReadText() string {
	return string(clipboard.Read(clipboard.FmtText))
}

func (designBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
