package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksense/internal/domain"
)

func rec(id, text string) domain.Record {
	return domain.Record{
		ID:   id,
		Text: text,
		Metadata: map[string]string{
			"ticker": "AMZN",
			"date":   "2024-01-02",
			"year":   "2024",
		},
	}
}

func newTestStorage(t *testing.T, dir string) *Storage {
	t.Helper()
	s, err := NewStorage(dir, "test_collection")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertCountSearchRoundTrip(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	require.NoError(t, s.Init(2))

	require.NoError(t, s.Upsert(
		[]domain.Record{rec("0", "first"), rec("1", "second")},
		[][]float64{{1, 0}, {0, 1}},
	))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := s.Search([]float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].Record.Text)
	assert.Equal(t, "AMZN", hits[0].Record.Metadata["ticker"])
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	require.NoError(t, s.Init(2))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Upsert([]domain.Record{rec("0", "same")}, [][]float64{{1, 0}}))
	}
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// last write wins
	require.NoError(t, s.Upsert([]domain.Record{rec("0", "replaced")}, [][]float64{{0, 1}}))
	hits, err := s.Search([]float64{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "replaced", hits[0].Record.Text)
}

func TestSearchBoundedByCount(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]domain.Record{rec("0", "only")}, [][]float64{{1, 0}}))

	hits, err := s.Search([]float64{1, 0}, 15)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMarkerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStorage(dir, "test_collection")
	require.NoError(t, err)
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]domain.Record{rec("0", "kept")}, [][]float64{{1, 0}}))
	require.NoError(t, s.SetIngestMarker("v1"))
	require.NoError(t, s.Close())

	reopened := newTestStorage(t, dir)
	n, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	marker, err := reopened.IngestMarker()
	require.NoError(t, err)
	assert.Equal(t, "v1", marker)
}

func TestCollectionsAreIndependent(t *testing.T) {
	dir := t.TempDir()

	a, err := NewStorage(dir, "collection_a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewStorage(dir, "collection_b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Init(2))
	require.NoError(t, a.Upsert([]domain.Record{rec("0", "in a")}, [][]float64{{1, 0}}))

	n, err := b.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClear(t *testing.T) {
	s := newTestStorage(t, t.TempDir())
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]domain.Record{rec("0", "gone")}, [][]float64{{1, 0}}))
	require.NoError(t, s.SetIngestMarker("v1"))

	require.NoError(t, s.Clear())

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	marker, err := s.IngestMarker()
	require.NoError(t, err)
	assert.Empty(t, marker)
}
