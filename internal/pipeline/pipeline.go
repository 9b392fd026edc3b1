// Package pipeline orchestrates ingestion of the dataset into the vector
// index and top-k retrieval of record texts for grounding answers.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"stocksense/internal/dataset"
	"stocksense/internal/domain"
	"stocksense/internal/index"
	"stocksense/internal/record"
)

const (
	DefaultBatchSize = 1000
	DefaultTopK      = 15
)

// ErrStaleIndex means the index holds data for a different dataset version
// than the one being ingested. Clear the collection to force re-ingestion.
var ErrStaleIndex = errors.New("index contents do not match dataset; clear the collection to re-ingest")

// Pipeline holds the dataset-to-index wiring: record builder, index handle
// and ingestion/retrieval parameters. Construct it once and pass it around;
// it keeps no hidden global state.
type Pipeline struct {
	builder   *record.Builder
	index     *index.Index
	batchSize int
	topK      int

	// Progress, when set, is called after each committed batch with the
	// number of records processed so far.
	Progress func(processed, total int)
}

func New(builder *record.Builder, ix *index.Index, batchSize, topK int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{builder: builder, index: ix, batchSize: batchSize, topK: topK}
}

// IngestReport describes the outcome of one ingestion run.
type IngestReport struct {
	Skipped bool
	Batches int
	Count   int
}

// Ingest populates the index from the dataset rows exactly once per dataset
// version. A populated index is treated as authoritative and skipped; a
// populated index whose ingestion marker does not match the dataset fails
// with ErrStaleIndex instead of silently serving partial data.
func (p *Pipeline) Ingest(rows []dataset.Row) (IngestReport, error) {
	records, err := p.builder.BuildAll(rows)
	if err != nil {
		return IngestReport{}, err
	}
	fp := fingerprint(records)

	count, err := p.index.Count()
	if err != nil {
		return IngestReport{}, err
	}
	if count > 0 {
		marker, supported, err := p.index.Marker()
		if err != nil {
			return IngestReport{}, err
		}
		if supported && marker != fp {
			return IngestReport{}, &domain.IngestionError{Offset: 0, Err: ErrStaleIndex}
		}
		return IngestReport{Skipped: true, Count: count}, nil
	}

	total := len(records)
	batches := 0
	for start := 0; start < total; start += p.batchSize {
		end := start + p.batchSize
		if end > total {
			end = total
		}
		if err := p.index.Upsert(records[start:end]); err != nil {
			return IngestReport{Batches: batches}, &domain.IngestionError{Offset: start, Err: err}
		}
		batches++
		if p.Progress != nil {
			p.Progress(end, total)
		}
	}
	if err := p.index.SetMarker(fp); err != nil {
		return IngestReport{Batches: batches}, &domain.IngestionError{Offset: total, Err: err}
	}

	final, err := p.index.Count()
	if err != nil {
		return IngestReport{Batches: batches}, err
	}
	return IngestReport{Batches: batches, Count: final}, nil
}

// Retrieve returns the texts of the k most similar records to the query,
// closest first. k <= 0 uses the configured top-k (default 15). When the
// collection holds fewer than k records, all of them are returned.
func (p *Pipeline) Retrieve(query string, k int) ([]string, error) {
	if k <= 0 {
		k = p.topK
	}
	hits, err := p.index.Query(query, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Record.Text
	}
	return texts, nil
}

// fingerprint identifies one built dataset version: any change to a record
// id or text changes the marker.
func fingerprint(records []domain.Record) string {
	h := sha256.New()
	for _, rec := range records {
		h.Write([]byte(rec.ID))
		h.Write([]byte{0})
		h.Write([]byte(rec.Text))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
