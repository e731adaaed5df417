// Package lockfile implements an advisory lock backed by a sentinel file.
//
// The lock is held while the sentinel exists. Acquire creates it with a single
// create-exclusive open, so two processes can never both believe they created
// it. Waiters poll at a fixed interval and give up after a timeout, which keeps
// a sentinel left behind by a crashed holder from blocking callers forever.
//
// The sentinel carries a small JSON payload describing the holder. Only its
// existence matters for exclusion; the payload is there to diagnose stale
// locks.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds how long Acquire waits for a held lock.
	DefaultTimeout = 10 * time.Second

	// DefaultPollInterval is the sleep between acquisition attempts.
	DefaultPollInterval = 50 * time.Millisecond
)

var (
	// ErrTimeout indicates the lock could not be acquired within the timeout.
	ErrTimeout = errors.New("lock timeout")

	// ErrNotHeld indicates Release found a sentinel owned by someone else.
	ErrNotHeld = errors.New("lock not held")
)

// Holder describes the process that created a sentinel.
type Holder struct {
	Token      string    `json:"token"`
	PID        int       `json:"pid"`
	Host       string    `json:"host,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
}

func (h *Holder) String() string {
	if h == nil || h.PID == 0 {
		return "unknown holder"
	}
	desc := fmt.Sprintf("pid %d", h.PID)
	if h.Host != "" {
		desc += " on " + h.Host
	}
	if !h.AcquiredAt.IsZero() {
		desc += " since " + h.AcquiredAt.Format(time.RFC3339)
	}
	return desc
}

// TimeoutError reports an Acquire that gave up waiting.
type TimeoutError struct {
	Path   string
	Waited time.Duration
	Holder *Holder
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for lock %s (held by %s)", e.Waited, e.Path, e.Holder)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Options configures a Guard. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Guard provides mutual exclusion through the sentinel file at a fixed path.
// A Guard is not reentrant: a holder must Release before acquiring again.
type Guard struct {
	path    string
	timeout time.Duration
	poll    time.Duration
	logger  *slog.Logger
}

// New returns a Guard for the sentinel at path.
func New(path string, opts Options) *Guard {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{
		path:    path,
		timeout: opts.Timeout,
		poll:    opts.PollInterval,
		logger:  opts.Logger,
	}
}

// Path returns the sentinel path.
func (g *Guard) Path() string {
	return g.path
}

// Acquire blocks until the sentinel can be created, then returns the held lock.
// It fails with a *TimeoutError once the guard's timeout elapses.
func (g *Guard) Acquire() (*Lock, error) {
	start := time.Now()
	deadline := start.Add(g.timeout)

	holder := Holder{
		Token:      uuid.NewString(),
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC(),
	}
	if host, err := os.Hostname(); err == nil {
		holder.Host = host
	}
	payload, err := json.Marshal(holder)
	if err != nil {
		return nil, fmt.Errorf("marshal lock holder: %w", err)
	}

	for attempt := 1; ; attempt++ {
		created, err := g.tryCreate(payload)
		if err != nil {
			return nil, err
		}
		if created {
			g.logger.Debug("lock acquired", "path", g.path, "attempts", attempt, "waited", time.Since(start))
			return &Lock{guard: g, holder: holder}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			current, _ := g.Holder()
			g.logger.Warn("lock timeout", "path", g.path, "holder", current.String())
			return nil, &TimeoutError{Path: g.path, Waited: time.Since(start), Holder: current}
		}
		if attempt == 1 {
			g.logger.Debug("waiting for lock", "path", g.path)
		}
		time.Sleep(min(g.poll, remaining))
	}
}

// tryCreate makes one create-exclusive attempt. It reports false when the
// sentinel already exists.
func (g *Guard) tryCreate(payload []byte) (bool, error) {
	file, err := os.OpenFile(g.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock file: %w", err)
	}

	_, err = file.Write(payload)
	if err1 := file.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(g.path)
		return false, fmt.Errorf("write lock file: %w", err)
	}
	return true, nil
}

// Holder returns the current sentinel's holder, or nil when the lock is free.
// An empty or unreadable payload yields a zero Holder.
func (g *Guard) Holder() (*Holder, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lock file: %w", err)
	}

	var holder Holder
	if len(data) == 0 {
		return &holder, nil
	}
	if err := json.Unmarshal(data, &holder); err != nil {
		return &Holder{}, nil
	}
	return &holder, nil
}

// Break removes the sentinel regardless of who holds it. It is meant for
// recovering from a holder that crashed.
func (g *Guard) Break() error {
	err := os.Remove(g.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	g.logger.Info("lock broken", "path", g.path)
	return nil
}

// Lock is a held lock.
type Lock struct {
	guard    *Guard
	holder   Holder
	released bool
}

// Holder returns the payload written into the sentinel.
func (l *Lock) Holder() Holder {
	return l.holder
}

// Release deletes the sentinel. It is safe to call more than once.
//
// If the sentinel was broken and re-created by another process, Release
// leaves it in place and returns ErrNotHeld.
func (l *Lock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true

	current, err := l.guard.Holder()
	if err != nil {
		return err
	}
	if current == nil {
		l.guard.logger.Warn("lock already removed", "path", l.guard.path)
		return nil
	}
	if current.Token != l.holder.Token {
		return fmt.Errorf("%w: %s now held by %s", ErrNotHeld, l.guard.path, current)
	}

	if err := os.Remove(l.guard.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	l.guard.logger.Debug("lock released", "path", l.guard.path)
	return nil
}
