package clip

import "sync"

// Memory is an in-process Backend holding a single text value. It is safe
// for concurrent use.
type Memory struct {
	mu       sync.Mutex
	text     string
	writes   int
	writeErr error
}

// NewMemory returns a Memory backend holding text.
func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) ReadText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// WriteText stores text, or returns the error set by FailWrites.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.text = text
	m.writes++
	return nil
}

// Set replaces the content as another application would. It is not counted
// by Writes.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// Writes returns the number of successful WriteText calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailWrites makes every subsequent WriteText return err. A nil err restores
// normal behaviour.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}
