package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksense/internal/dataset"
	"stocksense/internal/domain"
	"stocksense/internal/index"
	"stocksense/internal/record"
	"stocksense/internal/vectorstore"
	"stocksense/internal/vectorstore/memory"
)

// fakeEmbedder maps a text to a one-hot vector over known dates, so
// similarity ranking is fully deterministic in tests.
type fakeEmbedder struct {
	dates []string
}

func (e fakeEmbedder) Name() string   { return "fake" }
func (e fakeEmbedder) Dimension() int { return len(e.dates) + 1 }

func (e fakeEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, len(e.dates)+1)
	for i, d := range e.dates {
		if strings.Contains(text, d) {
			vec[i] = 1
		}
	}
	vec[len(e.dates)] = 0.25
	return vec, nil
}

// countingStore counts upsert calls. Wrapping the Storage interface drops
// marker support, which also exercises the count-only guard path.
type countingStore struct {
	vectorstore.Storage
	upserts int
}

func (c *countingStore) Upsert(records []domain.Record, vectors [][]float64) error {
	c.upserts++
	return c.Storage.Upsert(records, vectors)
}

// failingStore fails every upsert after the first n calls.
type failingStore struct {
	vectorstore.Storage
	okCalls int
	calls   int
}

func (f *failingStore) Upsert(records []domain.Record, vectors [][]float64) error {
	f.calls++
	if f.calls > f.okCalls {
		return errors.New("index unreachable")
	}
	return f.Storage.Upsert(records, vectors)
}

func row(date, close string) dataset.Row {
	return dataset.Row{
		Date:   date,
		Open:   "100.0",
		High:   "110.0",
		Low:    "90.0",
		Close:  close,
		Volume: "1000",
	}
}

func testRows() []dataset.Row {
	return []dataset.Row{
		row("2024-01-02", "151.94"),
		row("2024-01-03", "149.93"),
		row("2024-01-04", "144.57"),
	}
}

func testDates() []string {
	return []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
}

func newBuilder() *record.Builder {
	return record.NewBuilder("AMZN", "Amazon")
}

func TestIngestPopulatesEmptyIndex(t *testing.T) {
	ix := index.New(fakeEmbedder{dates: testDates()}, memory.NewStorage())
	p := New(newBuilder(), ix, 1000, 15)

	report, err := p.Ingest(testRows())
	require.NoError(t, err)

	assert.False(t, report.Skipped)
	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 3, report.Count)
}

func TestIngestSkipsPopulatedIndex(t *testing.T) {
	store := &countingStore{Storage: memory.NewStorage()}
	ix := index.New(fakeEmbedder{dates: testDates()}, store)
	p := New(newBuilder(), ix, 1000, 15)

	_, err := p.Ingest(testRows())
	require.NoError(t, err)
	require.Equal(t, 1, store.upserts)

	report, err := p.Ingest(testRows())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, 3, report.Count)
	assert.Equal(t, 1, store.upserts, "skip must issue zero upsert calls")
}

func TestIngestRerunWithMatchingMarkerSkips(t *testing.T) {
	ix := index.New(fakeEmbedder{dates: testDates()}, memory.NewStorage())
	p := New(newBuilder(), ix, 1000, 15)

	_, err := p.Ingest(testRows())
	require.NoError(t, err)

	report, err := p.Ingest(testRows())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
}

func TestIngestStaleMarkerFails(t *testing.T) {
	ix := index.New(fakeEmbedder{dates: testDates()}, memory.NewStorage())
	p := New(newBuilder(), ix, 1000, 15)

	_, err := p.Ingest(testRows())
	require.NoError(t, err)

	changed := testRows()
	changed = append(changed, row("2024-01-05", "148.11"))
	_, err = p.Ingest(changed)

	var ingErr *domain.IngestionError
	require.True(t, errors.As(err, &ingErr))
	assert.ErrorIs(t, err, ErrStaleIndex)
}

func TestIngestBatchCompleteness(t *testing.T) {
	store := &countingStore{Storage: memory.NewStorage()}
	ix := index.New(fakeEmbedder{dates: testDates()}, store)
	p := New(newBuilder(), ix, 2, 15)

	rows := []dataset.Row{
		row("2024-01-02", "151.94"),
		row("2024-01-03", "149.93"),
		row("2024-01-04", "144.57"),
		row("2024-01-05", "148.11"),
		row("2024-01-08", "149.10"),
	}
	var progress []int
	p.Progress = func(processed, total int) {
		progress = append(progress, processed)
		assert.Equal(t, 5, total)
	}

	report, err := p.Ingest(rows)
	require.NoError(t, err)

	assert.Equal(t, 3, store.upserts, "ceil(5/2) batches")
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 5, report.Count)
	assert.Equal(t, []int{2, 4, 5}, progress)
}

func TestIngestMalformedRowAbortsBeforeAnyUpsert(t *testing.T) {
	store := &countingStore{Storage: memory.NewStorage()}
	ix := index.New(fakeEmbedder{dates: testDates()}, store)
	p := New(newBuilder(), ix, 2, 15)

	rows := testRows()
	rows[1].Date = ""
	_, err := p.Ingest(rows)

	var malformed *domain.MalformedRowError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Row)
	assert.Zero(t, store.upserts)
}

func TestIngestFailedBatchReportsOffset(t *testing.T) {
	store := &failingStore{Storage: memory.NewStorage(), okCalls: 1}
	ix := index.New(fakeEmbedder{dates: testDates()}, store)
	p := New(newBuilder(), ix, 2, 15)

	rows := []dataset.Row{
		row("2024-01-02", "151.94"),
		row("2024-01-03", "149.93"),
		row("2024-01-04", "144.57"),
		row("2024-01-05", "148.11"),
	}
	_, err := p.Ingest(rows)

	var ingErr *domain.IngestionError
	require.True(t, errors.As(err, &ingErr))
	assert.Equal(t, 2, ingErr.Offset)

	// the committed batch stays in the index
	n, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRetrieveOrderingAndBound(t *testing.T) {
	ix := index.New(fakeEmbedder{dates: testDates()}, memory.NewStorage())
	p := New(newBuilder(), ix, 1000, 15)

	_, err := p.Ingest(testRows())
	require.NoError(t, err)

	hits, err := ix.Query("close on 2024-01-03", 3)
	require.NoError(t, err)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}

	// k larger than the collection returns everything
	texts, err := p.Retrieve("close on 2024-01-03", 10)
	require.NoError(t, err)
	assert.Len(t, texts, 3)

	// k <= 0 falls back to the configured top-k
	texts, err = p.Retrieve("close on 2024-01-03", 0)
	require.NoError(t, err)
	assert.Len(t, texts, 3)
}

func TestRetrieveEndToEnd(t *testing.T) {
	ix := index.New(fakeEmbedder{dates: testDates()}, memory.NewStorage())
	p := New(newBuilder(), ix, 1000, 15)

	_, err := p.Ingest(testRows())
	require.NoError(t, err)

	texts, err := p.Retrieve("What was the close on 2024-01-03?", 1)
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "On 2024-01-03")
	assert.Contains(t, texts[0], "closed at 149.93 USD")
}
