package clip

// ClipboardErrorKind identifies which clipboard step failed.
type ClipboardErrorKind int

const (
	Locked ClipboardErrorKind = iota + 1
	EmptyFailed
	SetFailed
	Unavailable
)

func (k ClipboardErrorKind) String() string {
	switch k {
	case Locked:
		return "could not open clipboard, possibly locked by another process"
	case EmptyFailed:
		return "could not empty clipboard"
	case SetFailed:
		return "could not set clipboard data"
	case Unavailable:
		return "no clipboard available"
	default:
		return "clipboard error"
	}
}

// ClipboardError reports a failed open, empty or set on the shared clipboard.
// These are usually transient: another process holds the clipboard.
type ClipboardError struct {
	Kind ClipboardErrorKind
	Err  error // underlying OS error, may be nil
}

func (e *ClipboardError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// Is matches any *ClipboardError of the same kind, so callers can write
// errors.Is(err, clip.ErrLocked).
func (e *ClipboardError) Is(target error) bool {
	t, ok := target.(*ClipboardError)
	return ok && t.Kind == e.Kind
}

// MemoryErrorKind identifies which global-memory step failed.
type MemoryErrorKind int

const (
	AllocFailed MemoryErrorKind = iota + 1
	LockFailed
)

func (k MemoryErrorKind) String() string {
	switch k {
	case AllocFailed:
		return "could not allocate global memory"
	case LockFailed:
		return "could not lock global memory"
	default:
		return "global memory error"
	}
}

// MemoryError reports a failed allocation or lock of the block handed to the
// clipboard.
type MemoryError struct {
	Kind MemoryErrorKind
	Err  error
}

func (e *MemoryError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *MemoryError) Unwrap() error { return e.Err }

func (e *MemoryError) Is(target error) bool {
	t, ok := target.(*MemoryError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrLocked      = &ClipboardError{Kind: Locked}
	ErrEmptyFailed = &ClipboardError{Kind: EmptyFailed}
	ErrSetFailed   = &ClipboardError{Kind: SetFailed}
	ErrUnavailable = &ClipboardError{Kind: Unavailable}
	ErrAllocFailed = &MemoryError{Kind: AllocFailed}
	ErrLockFailed  = &MemoryError{Kind: LockFailed}
)
