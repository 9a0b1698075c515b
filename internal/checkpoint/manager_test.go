package checkpoint

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
)

// memStore records every write for inspection.
type memStore struct {
	records []games.Record
	writes  []int
	creates int
	failing error
}

func (s *memStore) Exists() bool { return s.creates > 0 || len(s.records) > 0 }

func (s *memStore) LastName(context.Context) (string, error) {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Name != "" {
			return s.records[i].Name, nil
		}
	}
	return "", nil
}

func (s *memStore) Append(_ context.Context, rs []games.Record) error {
	if s.failing != nil {
		return s.failing
	}
	s.records = append(s.records, rs...)
	s.writes = append(s.writes, len(rs))
	return nil
}

func (s *memStore) Create(_ context.Context, rs []games.Record) error {
	if s.failing != nil {
		return s.failing
	}
	s.creates++
	s.records = append([]games.Record(nil), rs...)
	s.writes = append(s.writes, len(rs))
	return nil
}

func (s *memStore) Records(context.Context) ([]games.Record, error) { return s.records, nil }
func (s *memStore) Close() error                                    { return nil }

func TestBatchFlushAfterThirteenSuccesses(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m := NewManager(store)

	for i := range 13 {
		require.NoError(t, m.Add(ctx, record(fmt.Sprintf("Game %02d", i)), true))
		if i == 9 {
			assert.Equal(t, []int{10}, store.writes, "first batch at ten successes")
			assert.Equal(t, 1, store.creates, "first flush creates the store")
		}
	}
	assert.Equal(t, 3, m.Buffered())

	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, []int{10, 3}, store.writes, "final flush covers the tail")
	assert.Equal(t, 1, store.creates, "later flushes append")
	assert.Equal(t, 2, m.Flushes())
	assert.Equal(t, 13, m.Written())
	assert.Len(t, store.records, 13)

	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, 2, m.Flushes(), "empty flush is a no-op")
}

func TestAbandonedRecordsDoNotTriggerFlush(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	m := NewManager(store, WithSaveEvery(2))

	require.NoError(t, m.Add(ctx, record("A"), true))
	require.NoError(t, m.Add(ctx, record("B"), false))
	require.NoError(t, m.Add(ctx, record("C"), false))
	assert.Empty(t, store.writes)

	require.NoError(t, m.Add(ctx, record("D"), true))
	assert.Equal(t, []int{4}, store.writes, "abandoned records ride along with the batch")
}

func TestFlushFailureKeepsBuffer(t *testing.T) {
	ctx := context.Background()
	store := &memStore{failing: fmt.Errorf("disk full")}
	m := NewManager(store, WithSaveEvery(1))

	assert.Error(t, m.Add(ctx, record("A"), true))
	assert.Equal(t, 1, m.Buffered())

	store.failing = nil
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, 0, m.Buffered())
	assert.Len(t, store.records, 1)
}

func TestResumeIndex(t *testing.T) {
	ctx := context.Background()
	queue := []string{"Alpha Game", "Beta Game", "Delta Force", "Gamma Quest"}

	tests := []struct {
		name   string
		stored []games.Record
		want   int
	}{
		{name: "no store", want: 0},
		{name: "exact tail", stored: records("Alpha Game", "Beta Game"), want: 2},
		{name: "drifted tail", stored: records("Delta Force: Remastered"), want: 3},
		{name: "last entry", stored: records("Gamma Quest"), want: 4},
		{name: "only unnamed rows", stored: []games.Record{record("")}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(&memStore{records: tt.stored})
			got, err := m.ResumeIndex(ctx, queue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResumeIndexFloor(t *testing.T) {
	m := NewManager(&memStore{records: records("Zzz")}, WithResumeFloor(0.9))
	got, err := m.ResumeIndex(context.Background(), []string{"Alpha Game"})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestOpenLocksStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")

	first, err := Open(path)
	require.NoError(t, err)

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLocked)

	require.NoError(t, first.Close())
	second, err := Open(path)
	require.NoError(t, err, "lock is released on close")
	require.NoError(t, second.Close())
}

func TestOpenResumesFromCSV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "games.csv")

	m, err := Open(path, WithSaveEvery(2))
	require.NoError(t, err)
	require.NoError(t, m.Add(ctx, record("Alpha Game"), true))
	require.NoError(t, m.Add(ctx, record("Beta Game"), true))
	require.NoError(t, m.Close())

	m, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	idx, err := m.ResumeIndex(ctx, []string{"Alpha Game", "Beta Game", "Gamma Quest"})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestResumeIndexAfterInterruptedFlush(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "games.csv")
	queue := []string{"Alpha Game", "Beta Game", "Gamma Quest"}

	m, err := Open(path, WithSaveEvery(2))
	require.NoError(t, err)
	require.NoError(t, m.Add(ctx, described("Alpha Game"), true))
	require.NoError(t, m.Add(ctx, described("Beta Game"), true))
	require.NoError(t, m.Close())
	cutCSV(t, path, "Explore", 3)

	m, err = Open(path, WithSaveEvery(2))
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	idx, err := m.ResumeIndex(ctx, queue)
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "the half-written entity is processed again")

	require.NoError(t, m.Add(ctx, described("Beta Game"), true))
	require.NoError(t, m.Add(ctx, described("Gamma Quest"), true))

	got, err := m.Store().Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Alpha Game", got[0].Name)
	assert.Equal(t, "Beta Game", got[1].Name)
	assert.Equal(t, "Gamma Quest", got[2].Name)
}
