package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"
	"unsafe"

	"golang.org/x/text/encoding/unicode"
)

const (
	cfUnicodeText = 13     // CF_UNICODETEXT
	gmemMoveable  = 0x0002 // GMEM_MOVEABLE

	openAttempts = 5
	openBackoff  = 100 * time.Millisecond
)

// utf16le is the CF_UNICODETEXT payload encoding. No BOM is written or expected.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// winAPI is the subset of user32 and kernel32 needed to move text through the
// Windows clipboard. Handles are raw HANDLE / HGLOBAL values. The clip_windows.go
// implementation calls the DLLs; tests use a fake.
type winAPI interface {
	OpenClipboard() error
	CloseClipboard()
	EmptyClipboard() error
	GetClipboardData(format uint32) (uintptr, error)
	SetClipboardData(format uint32, h uintptr) error
	GlobalAlloc(flags uint32, size uintptr) (uintptr, error)
	GlobalLock(h uintptr) (unsafe.Pointer, error)
	GlobalUnlock(h uintptr)
	GlobalFree(h uintptr) error
	GlobalSize(h uintptr) uintptr
}

// win32Backend runs the OpenClipboard/CloseClipboard protocol over a winAPI.
// The clipboard is never held across a sleep.
type win32Backend struct {
	api   winAPI
	sleep func(time.Duration)
}

func newWin32Backend(api winAPI) *win32Backend {
	return &win32Backend{api: api, sleep: time.Sleep}
}

func (b *win32Backend) Name() string { return "Windows clipboard (CF_UNICODETEXT)" }

// ReadText makes a single attempt to open the clipboard and copy out its
// Unicode text. A memory fault while reading the locked block is recovered
// and reported as "".
func (b *win32Backend) ReadText() (text string) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			if _, fault := r.(interface{ Addr() uintptr }); !fault {
				panic(r)
			}
			slog.Debug("clipboard read faulted", "err", r)
			text = ""
		}
	}()

	if err := b.api.OpenClipboard(); err != nil {
		slog.Debug("clipboard busy, skipping read", "err", err)
		return ""
	}
	defer b.api.CloseClipboard()

	h, err := b.api.GetClipboardData(cfUnicodeText)
	if err != nil || h == 0 {
		return ""
	}
	p, err := b.api.GlobalLock(h)
	if err != nil || p == nil {
		return ""
	}
	defer b.api.GlobalUnlock(h)

	return decodeUTF16(readUTF16Z(p, b.api.GlobalSize(h)))
}

// WriteText replaces the clipboard with text as CF_UNICODETEXT.
func (b *win32Backend) WriteText(text string) error {
	data, err := encodeUTF16Z(text)
	if err != nil {
		return fmt.Errorf("encode utf-16: %w", err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := b.open(); err != nil {
		return err
	}
	defer b.api.CloseClipboard()

	if err := b.api.EmptyClipboard(); err != nil {
		return &ClipboardError{Kind: EmptyFailed, Err: err}
	}

	mem, err := allocGlobal(b.api, len(data))
	if err != nil {
		return err
	}
	defer mem.release()

	if err := mem.fill(data); err != nil {
		return err
	}
	return mem.handOff(cfUnicodeText)
}

// open retries OpenClipboard, sleeping openBackoff after every failure.
func (b *win32Backend) open() error {
	var err error
	for range openAttempts {
		if err = b.api.OpenClipboard(); err == nil {
			return nil
		}
		b.sleep(openBackoff)
	}
	return &ClipboardError{Kind: Locked, Err: err}
}

// globalMem is a GMEM_MOVEABLE block. While owned is set the block belongs to
// this process and release frees it. After a successful handOff the clipboard
// owns it and release is a no-op.
type globalMem struct {
	api   winAPI
	h     uintptr
	size  int
	owned bool
}

func allocGlobal(api winAPI, size int) (*globalMem, error) {
	h, err := api.GlobalAlloc(gmemMoveable, uintptr(size))
	if err != nil || h == 0 {
		return nil, &MemoryError{Kind: AllocFailed, Err: err}
	}
	return &globalMem{api: api, h: h, size: size, owned: true}, nil
}

// fill copies data into the block. A lock failure frees the block at once.
func (m *globalMem) fill(data []byte) error {
	p, err := m.api.GlobalLock(m.h)
	if err != nil || p == nil {
		m.release()
		return &MemoryError{Kind: LockFailed, Err: err}
	}
	copy(unsafe.Slice((*byte)(p), m.size), data)
	m.api.GlobalUnlock(m.h)
	return nil
}

// handOff passes the block to SetClipboardData. On success ownership moves
// to the OS.
func (m *globalMem) handOff(format uint32) error {
	if err := m.api.SetClipboardData(format, m.h); err != nil {
		return &ClipboardError{Kind: SetFailed, Err: err}
	}
	m.owned = false
	return nil
}

func (m *globalMem) release() {
	if !m.owned {
		return
	}
	m.owned = false
	if err := m.api.GlobalFree(m.h); err != nil {
		slog.Warn("GlobalFree failed", "err", err)
	}
}

// encodeUTF16Z returns text as UTF-16LE followed by a NUL code unit.
func encodeUTF16Z(text string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, err
	}
	return append(b, 0, 0), nil
}

// readUTF16Z copies the NUL-terminated UTF-16 string at p, without the NUL.
// The scan stops at the end of the size-byte block if no NUL is found.
func readUTF16Z(p unsafe.Pointer, size uintptr) []byte {
	limit := int(size / 2)
	n := 0
	for n < limit && *(*uint16)(unsafe.Add(p, 2*n)) != 0 {
		n++
	}
	return bytes.Clone(unsafe.Slice((*byte)(p), 2*n))
}

func decodeUTF16(b []byte) string {
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		slog.Debug("clipboard text is not valid utf-16", "err", err)
		return ""
	}
	return string(out)
}
