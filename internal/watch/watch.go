// Package watch polls the clipboard and replaces SafeLinks with the URL they
// wrap.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/unsafelinks/internal/clip"
	"go.klb.dev/unsafelinks/internal/safelink"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 500 * time.Millisecond

// State is the outcome of a single poll.
type State int

const (
	// Idle means nothing was replaced on this tick.
	Idle State = iota
	// Decoded means a SafeLink was found and the clipboard now holds its target.
	Decoded
)

// Watcher replaces SafeLinks on the clipboard. It is not safe for concurrent
// use; Run and Tick must be called from a single goroutine.
type Watcher struct {
	backend  clip.Backend
	matcher  *safelink.Matcher
	interval time.Duration

	// last is the most recent clipboard content already handled.
	last string

	// OnDecoded, if set, is called after each successful replacement.
	OnDecoded func(original, decoded string)
}

// New creates a Watcher. A non-positive interval selects DefaultInterval and
// a nil matcher selects safelink.DefaultPrefixes.
func New(backend clip.Backend, matcher *safelink.Matcher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if matcher == nil {
		matcher = safelink.NewMatcher(nil)
	}
	return &Watcher{
		backend:  backend,
		matcher:  matcher,
		interval: interval,
	}
}

// Interval returns the poll period.
func (w *Watcher) Interval() time.Duration { return w.interval }

// Run polls until ctx is cancelled. Write failures are logged and retried on
// the next tick. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("clipboard watch started",
		"backend", w.backend.Name(),
		"interval", w.interval,
		"prefixes", w.matcher.Prefixes(),
	)

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("clipboard watch stopped")
			return nil
		case <-t.C:
			if _, err := w.Tick(); err != nil {
				slog.Error("clipboard write failed", "err", err)
			}
		}
	}
}

// Tick reads the clipboard once and, if it newly holds a SafeLink, replaces
// it with the decoded URL.
//
// Changed content that is not a SafeLink leaves the last-seen value
// untouched. A SafeLink without a "url" parameter becomes the last-seen value
// so it is not reprocessed.
func (w *Watcher) Tick() (State, error) {
	current := w.backend.ReadText()
	if current == w.last || !w.matcher.Match(current) {
		return Idle, nil
	}

	decoded, ok := safelink.Decode(current)
	if !ok {
		slog.Debug("safelink without url parameter", "preview", clip.Preview(current))
		w.last = current
		return Idle, nil
	}

	if err := w.backend.WriteText(decoded); err != nil {
		return Idle, fmt.Errorf("replace safelink: %w", err)
	}
	w.last = decoded
	clip.LogText("safelink decoded", w.backend.Name(), decoded)

	if w.OnDecoded != nil {
		w.OnDecoded(current, decoded)
	}
	return Decoded, nil
}
