//go:build windows

package clip

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard    = user32.NewProc("OpenClipboard")
	procCloseClipboard   = user32.NewProc("CloseClipboard")
	procEmptyClipboard   = user32.NewProc("EmptyClipboard")
	procGetClipboardData = user32.NewProc("GetClipboardData")
	procSetClipboardData = user32.NewProc("SetClipboardData")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalSize   = kernel32.NewProc("GlobalSize")
)

// New returns the native Windows clipboard backend. The DLLs are resolved
// lazily on first use.
func New() Backend {
	return newWin32Backend(nativeAPI{})
}

// nativeAPI binds winAPI to user32.dll and kernel32.dll.
type nativeAPI struct{}

func (nativeAPI) OpenClipboard() error {
	// hWndNewOwner = NULL: associate the open clipboard with this task.
	if r, _, err := procOpenClipboard.Call(0); r == 0 {
		return err
	}
	return nil
}

func (nativeAPI) CloseClipboard() {
	_, _, _ = procCloseClipboard.Call()
}

func (nativeAPI) EmptyClipboard() error {
	if r, _, err := procEmptyClipboard.Call(); r == 0 {
		return err
	}
	return nil
}

func (nativeAPI) GetClipboardData(format uint32) (uintptr, error) {
	r, _, err := procGetClipboardData.Call(uintptr(format))
	if r == 0 {
		return 0, err
	}
	return r, nil
}

func (nativeAPI) SetClipboardData(format uint32, h uintptr) error {
	if r, _, err := procSetClipboardData.Call(uintptr(format), h); r == 0 {
		return err
	}
	return nil
}

func (nativeAPI) GlobalAlloc(flags uint32, size uintptr) (uintptr, error) {
	r, _, err := procGlobalAlloc.Call(uintptr(flags), size)
	if r == 0 {
		return 0, err
	}
	return r, nil
}

func (nativeAPI) GlobalLock(h uintptr) (unsafe.Pointer, error) {
	r, _, err := procGlobalLock.Call(h)
	if r == 0 {
		return nil, err
	}
	return unsafe.Pointer(r), nil
}

func (nativeAPI) GlobalUnlock(h uintptr) {
	_, _, _ = procGlobalUnlock.Call(h)
}

func (nativeAPI) GlobalFree(h uintptr) error {
	// GlobalFree returns NULL on success and the handle on failure.
	if r, _, err := procGlobalFree.Call(h); r != 0 {
		return err
	}
	return nil
}

func (nativeAPI) GlobalSize(h uintptr) uintptr {
	// Zero on failure, which reads as an empty string.
	r, _, _ := procGlobalSize.Call(h)
	return r
}
