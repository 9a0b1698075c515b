package checkpoint

import (
	"context"

	"github.com/gofrs/flock"

	"github.com/agentstation/gamemeta/internal/matcher"
	"github.com/agentstation/gamemeta/internal/metrics"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/logging"
)

// Manager is the only writer of a store. It buffers records and flushes
// them in batches counted in successful entities.
type Manager struct {
	store       Store
	lock        *flock.Flock
	saveEvery   int
	resumeFloor float64

	buffer  []games.Record
	pending int // successes since the last flush
	flushes int
	written int
}

// Option configures a Manager.
type Option func(*Manager)

// WithSaveEvery sets how many successful entities trigger a flush.
func WithSaveEvery(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.saveEvery = n
		}
	}
}

// WithResumeFloor sets the similarity a stored name must exceed to resume
// after it.
func WithResumeFloor(f float64) Option {
	return func(m *Manager) {
		m.resumeFloor = f
	}
}

// NewManager wraps an open store without locking it.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		saveEvery:   constants.SaveEveryNGames,
		resumeFloor: constants.ResumeFloor,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open locks path and opens the store there. The lock is an advisory
// <path>.lock file; a second Open of the same path fails with ErrLocked
// until the first Manager is closed.
func Open(path string, opts ...Option) (*Manager, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.WrapIO("lock", path, err)
	}
	if !ok {
		return nil, &errors.ResourceError{
			Operation: "lock",
			Resource:  "store",
			ID:        path,
			Message:   "another run is writing to this store",
			Err:       errors.ErrLocked,
		}
	}

	store, err := OpenStore(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	m := NewManager(store, opts...)
	m.lock = lock
	return m, nil
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// repairer is a store that can drop a row left incomplete by a crash.
type repairer interface {
	Repair(ctx context.Context) (int64, error)
}

// ResumeIndex returns the queue position to start at. When the store holds
// records, the last stored name is matched against the whole queue and the
// run resumes after the best match. A row cut short by an interrupted flush
// is dropped first, so its entity is processed again. It returns 0 when there
// is nothing to resume from or no entry scores above the resume floor.
func (m *Manager) ResumeIndex(ctx context.Context, queue []string) (int, error) {
	if !m.store.Exists() {
		return 0, nil
	}
	if r, ok := m.store.(repairer); ok {
		if _, err := r.Repair(ctx); err != nil {
			return 0, err
		}
	}
	last, err := m.store.LastName(ctx)
	if err != nil {
		return 0, err
	}
	if last == "" {
		return 0, nil
	}

	k, score := matcher.BestMatch(last, queue)
	logger := logging.FromContext(ctx)
	if k < 0 || score <= m.resumeFloor {
		logger.Info().Str("last", last).Float64("score", score).Msg("No queue entry matches the stored tail, starting over")
		return 0, nil
	}
	logger.Info().
		Str("last", last).
		Str("match", queue[k]).
		Float64("score", score).
		Int("index", k+1).
		Msg("Resuming after stored tail")
	return k + 1, nil
}

// Add buffers a record. Successful records count toward the next batch;
// abandoned ones ride along with it.
func (m *Manager) Add(ctx context.Context, record games.Record, success bool) error {
	m.buffer = append(m.buffer, record)
	if !success {
		return nil
	}
	m.pending++
	if m.pending >= m.saveEvery {
		return m.Flush(ctx)
	}
	return nil
}

// Flush writes the buffer, appending when the store exists and creating it
// otherwise. The buffer is kept on failure.
func (m *Manager) Flush(ctx context.Context) error {
	if len(m.buffer) == 0 {
		return nil
	}

	var err error
	if m.store.Exists() {
		err = m.store.Append(ctx, m.buffer)
	} else {
		err = m.store.Create(ctx, m.buffer)
	}
	if err != nil {
		return err
	}

	n := len(m.buffer)
	m.flushes++
	m.written += n
	metrics.RecordFlush(n)
	logging.FromContext(ctx).Debug().Int("records", n).Int("flushes", m.flushes).Msg("Flushed records")

	m.buffer = nil
	m.pending = 0
	return nil
}

// Buffered returns the number of unflushed records.
func (m *Manager) Buffered() int {
	return len(m.buffer)
}

// Flushes returns the number of successful flushes.
func (m *Manager) Flushes() int {
	return m.flushes
}

// Written returns the number of records flushed.
func (m *Manager) Written() int {
	return m.written
}

// Close closes the store and releases the lock. It does not flush.
func (m *Manager) Close() error {
	err := m.store.Close()
	if m.lock != nil {
		if unlockErr := m.lock.Unlock(); unlockErr != nil && err == nil {
			err = errors.WrapIO("unlock", m.lock.Path(), unlockErr)
		}
	}
	return err
}
