// Package clip provides text access to the system clipboard. Build
// constraints select the implementation:
//
//	clip_windows.go  — Windows via user32/kernel32 (CF_UNICODETEXT)
//	clip_other.go    — everything else via golang.design/x/clipboard,
//	                   falling back to a headless stub without a display
//
// Memory is an in-process Backend for tests and embedding.
package clip

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the clipboard's text content. Any failure, including
	// the clipboard being held by another process or holding no text,
	// yields "".
	ReadText() string

	// WriteText replaces the clipboard content with text. Errors are
	// *ClipboardError or *MemoryError.
	WriteText(text string) error
}
