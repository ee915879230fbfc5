package clip

import (
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("clipboard busy")

// memoryFault mimics the runtime error raised by an access violation while
// panic-on-fault is enabled.
type memoryFault struct{}

func (memoryFault) Error() string { return "unexpected fault address 0xdead" }
func (memoryFault) RuntimeError() {}
func (memoryFault) Addr() uintptr { return 0xdead }

// fakeAPI simulates user32/kernel32 with Go memory. Blocks handed to the
// clipboard stay in blocks until EmptyClipboard releases them on the OS side.
type fakeAPI struct {
	open       bool
	openFails  int // fail this many OpenClipboard calls; -1 fails forever
	openCalls  int
	closeCalls int

	emptyErr error
	allocErr error
	lockErr  error
	setErr   error
	getPanic any

	nextHandle uintptr
	blocks     map[uintptr][]byte
	locks      map[uintptr]int
	frees      map[uintptr]int
	data       map[uint32]uintptr // clipboard format → OS-owned handle
	osFreed    []uintptr          // freed by us while owned by the clipboard
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		blocks: make(map[uintptr][]byte),
		locks:  make(map[uintptr]int),
		frees:  make(map[uintptr]int),
		data:   make(map[uint32]uintptr),
	}
}

func (f *fakeAPI) OpenClipboard() error {
	f.openCalls++
	if f.open {
		return errors.New("clipboard already open")
	}
	if f.openFails < 0 || f.openCalls <= f.openFails {
		return errBusy
	}
	f.open = true
	return nil
}

func (f *fakeAPI) CloseClipboard() {
	f.closeCalls++
	f.open = false
}

func (f *fakeAPI) EmptyClipboard() error {
	if !f.open {
		return errors.New("clipboard not open")
	}
	if f.emptyErr != nil {
		return f.emptyErr
	}
	for format, h := range f.data {
		delete(f.blocks, h)
		delete(f.data, format)
	}
	return nil
}

func (f *fakeAPI) GetClipboardData(format uint32) (uintptr, error) {
	if f.getPanic != nil {
		panic(f.getPanic)
	}
	if !f.open {
		return 0, errors.New("clipboard not open")
	}
	h, ok := f.data[format]
	if !ok {
		return 0, errors.New("format not available")
	}
	return h, nil
}

func (f *fakeAPI) SetClipboardData(format uint32, h uintptr) error {
	if !f.open {
		return errors.New("clipboard not open")
	}
	if f.setErr != nil {
		return f.setErr
	}
	f.data[format] = h
	return nil
}

func (f *fakeAPI) GlobalAlloc(_ uint32, size uintptr) (uintptr, error) {
	if f.allocErr != nil {
		return 0, f.allocErr
	}
	f.nextHandle++
	f.blocks[f.nextHandle] = make([]byte, size)
	return f.nextHandle, nil
}

func (f *fakeAPI) GlobalLock(h uintptr) (unsafe.Pointer, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	b, ok := f.blocks[h]
	if !ok || len(b) == 0 {
		return nil, errors.New("invalid handle")
	}
	f.locks[h]++
	return unsafe.Pointer(&b[0]), nil
}

func (f *fakeAPI) GlobalUnlock(h uintptr) {
	f.locks[h]--
}

func (f *fakeAPI) GlobalFree(h uintptr) error {
	f.frees[h]++
	for _, owned := range f.data {
		if owned == h {
			f.osFreed = append(f.osFreed, h)
		}
	}
	delete(f.blocks, h)
	return nil
}

func (f *fakeAPI) GlobalSize(h uintptr) uintptr {
	return uintptr(len(f.blocks[h]))
}

// seed places text on the clipboard as another application would.
func (f *fakeAPI) seed(t *testing.T, text string) {
	t.Helper()
	data, err := encodeUTF16Z(text)
	require.NoError(t, err)
	f.nextHandle++
	f.blocks[f.nextHandle] = data
	f.data[cfUnicodeText] = f.nextHandle
}

func newTestBackend(api *fakeAPI) (*win32Backend, *[]time.Duration) {
	var slept []time.Duration
	b := newWin32Backend(api)
	b.sleep = func(d time.Duration) { slept = append(slept, d) }
	return b, &slept
}

func TestWin32_WriteThenReadRoundTrip(t *testing.T) {
	for _, text := range []string{
		"https://example.com",
		"héllo wörld, ça va?",
		"party 🎉 time 👩‍💻",
		"日本語のテキスト",
		"",
	} {
		api := newFakeAPI()
		b, _ := newTestBackend(api)

		require.NoError(t, b.WriteText(text))
		assert.Equal(t, text, b.ReadText())
		assert.False(t, api.open, "clipboard left open")
		assert.Empty(t, api.frees, "handed-off block must not be freed")
	}
}

func TestWin32_WriteEncodesNulTerminatedUTF16(t *testing.T) {
	api := newFakeAPI()
	b, _ := newTestBackend(api)

	require.NoError(t, b.WriteText("hé🎉"))

	h := api.data[cfUnicodeText]
	require.NotZero(t, h)
	assert.Equal(t, []byte{
		'h', 0x00,
		0xe9, 0x00,
		0x3c, 0xd8, 0x89, 0xdf, // U+1F389 as a surrogate pair
		0x00, 0x00,
	}, api.blocks[h])
	assert.Zero(t, api.locks[h], "block left locked")
}

func TestWin32_WriteReplacesExistingContent(t *testing.T) {
	api := newFakeAPI()
	api.seed(t, "old")
	b, _ := newTestBackend(api)

	require.NoError(t, b.WriteText("new"))
	assert.Equal(t, "new", b.ReadText())
	assert.Len(t, api.blocks, 1)
}

func TestWin32_SetSuccessNeverFrees(t *testing.T) {
	api := newFakeAPI()
	b, _ := newTestBackend(api)

	require.NoError(t, b.WriteText("owned by the OS now"))
	assert.Empty(t, api.frees)
	assert.Empty(t, api.osFreed)
	assert.Equal(t, 1, api.closeCalls)
}

func TestWin32_LockFailureFreesOnce(t *testing.T) {
	api := newFakeAPI()
	api.lockErr = errors.New("lock failed")
	b, _ := newTestBackend(api)

	err := b.WriteText("text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockFailed)
	assert.ErrorIs(t, err, api.lockErr)

	var memErr *MemoryError
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, LockFailed, memErr.Kind)

	require.Len(t, api.frees, 1)
	assert.Equal(t, 1, api.frees[api.nextHandle])
	assert.Empty(t, api.data)
	assert.False(t, api.open)
}

func TestWin32_SetFailureFreesOnce(t *testing.T) {
	api := newFakeAPI()
	api.setErr = errors.New("set failed")
	b, _ := newTestBackend(api)

	err := b.WriteText("text")
	assert.ErrorIs(t, err, ErrSetFailed)
	assert.ErrorIs(t, err, api.setErr)

	require.Len(t, api.frees, 1)
	assert.Equal(t, 1, api.frees[api.nextHandle])
	assert.Empty(t, api.osFreed)
	assert.Zero(t, api.locks[api.nextHandle])
	assert.False(t, api.open)
}

func TestWin32_AllocFailure(t *testing.T) {
	api := newFakeAPI()
	api.allocErr = errors.New("out of memory")
	b, _ := newTestBackend(api)

	err := b.WriteText("text")
	assert.ErrorIs(t, err, ErrAllocFailed)
	assert.Empty(t, api.frees)
	assert.False(t, api.open)
	assert.Equal(t, 1, api.closeCalls)
}

func TestWin32_EmptyFailure(t *testing.T) {
	api := newFakeAPI()
	api.emptyErr = errors.New("access denied")
	b, _ := newTestBackend(api)

	err := b.WriteText("text")
	assert.ErrorIs(t, err, ErrEmptyFailed)
	assert.Zero(t, api.nextHandle, "nothing should be allocated")
	assert.False(t, api.open)
}

func TestWin32_OpenRetriesUntilAvailable(t *testing.T) {
	api := newFakeAPI()
	api.openFails = 3
	b, slept := newTestBackend(api)

	require.NoError(t, b.WriteText("eventually"))
	assert.Equal(t, 4, api.openCalls)
	assert.Equal(t, []time.Duration{openBackoff, openBackoff, openBackoff}, *slept)
}

func TestWin32_OpenGivesUpWhenLocked(t *testing.T) {
	api := newFakeAPI()
	api.openFails = -1
	b, slept := newTestBackend(api)

	err := b.WriteText("never")
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, openAttempts, api.openCalls)
	assert.Len(t, *slept, openAttempts)
	assert.Zero(t, api.closeCalls, "close without a successful open")
	assert.Zero(t, api.nextHandle)
}

func TestWin32_ReadBusyIsSingleAttempt(t *testing.T) {
	api := newFakeAPI()
	api.seed(t, "hidden")
	api.openFails = -1
	b, slept := newTestBackend(api)

	assert.Equal(t, "", b.ReadText())
	assert.Equal(t, 1, api.openCalls)
	assert.Empty(t, *slept)
}

func TestWin32_ReadNoText(t *testing.T) {
	api := newFakeAPI()
	b, _ := newTestBackend(api)

	assert.Equal(t, "", b.ReadText())
	assert.False(t, api.open)
	assert.Equal(t, 1, api.closeCalls)
}

func TestWin32_ReadLockFailure(t *testing.T) {
	api := newFakeAPI()
	api.seed(t, "locked away")
	api.lockErr = errors.New("lock failed")
	b, _ := newTestBackend(api)

	assert.Equal(t, "", b.ReadText())
	assert.False(t, api.open)
}

func TestWin32_ReadUnlocksAndCloses(t *testing.T) {
	api := newFakeAPI()
	api.seed(t, "content")
	b, _ := newTestBackend(api)

	assert.Equal(t, "content", b.ReadText())
	assert.Zero(t, api.locks[api.data[cfUnicodeText]])
	assert.False(t, api.open)
	assert.Empty(t, api.frees, "reads never free clipboard memory")
}

func TestWin32_ReadClosesOnPanic(t *testing.T) {
	api := newFakeAPI()
	api.getPanic = "boom"
	b, _ := newTestBackend(api)

	assert.PanicsWithValue(t, "boom", func() { b.ReadText() })
	assert.False(t, api.open)
}

func TestWin32_ReadRecoversFault(t *testing.T) {
	api := newFakeAPI()
	api.seed(t, "unreachable")
	api.getPanic = memoryFault{}
	b, _ := newTestBackend(api)

	assert.NotPanics(t, func() {
		assert.Equal(t, "", b.ReadText())
	})
	assert.False(t, api.open)
	assert.Equal(t, 1, api.closeCalls)
}

func TestWin32_ReadStopsAtBlockEnd(t *testing.T) {
	api := newFakeAPI()
	api.nextHandle++
	api.blocks[api.nextHandle] = []byte{'a', 0, 'b', 0, 'c', 0}
	api.data[cfUnicodeText] = api.nextHandle
	b, _ := newTestBackend(api)

	assert.Equal(t, "abc", b.ReadText())
	assert.False(t, api.open)
}

func TestWin32_ReadOddSizedBlock(t *testing.T) {
	api := newFakeAPI()
	api.nextHandle++
	api.blocks[api.nextHandle] = []byte{'h', 0, 'i', 0, 'x'}
	api.data[cfUnicodeText] = api.nextHandle
	b, _ := newTestBackend(api)

	assert.Equal(t, "hi", b.ReadText())
}

func TestEncodeUTF16Z(t *testing.T) {
	b, err := encodeUTF16Z("")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, b)

	b, err = encodeUTF16Z("ab")
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 0, 'b', 0, 0, 0}, b)
}
