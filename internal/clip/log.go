package clip

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

const previewLen = 120

// LogText logs a clipboard event at INFO with the text length and, at DEBUG,
// a preview of up to 120 characters.
func LogText(event, backend, text string) {
	slog.Info(event, "backend", backend, "chars", utf8.RuneCountInString(text))

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("clipboard text", "preview", Preview(text))
}

// Preview truncates s to 120 characters, marking the cut with an ellipsis.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	r := []rune(s)
	return string(r[:previewLen]) + "…"
}
