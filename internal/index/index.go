// Package index binds an embedder to a vector storage and exposes the
// text-level contract the pipeline works against: count, id-keyed upsert of
// (id, text, metadata) records, and top-k query by free text.
package index

import (
	"errors"
	"strings"

	"stocksense/internal/domain"
	"stocksense/internal/embedding"
	"stocksense/internal/vectorstore"
)

type Index struct {
	embedder embedding.Embedder
	storage  vectorstore.Storage
	inited   bool
}

func New(embedder embedding.Embedder, storage vectorstore.Storage) *Index {
	return &Index{embedder: embedder, storage: storage}
}

func (ix *Index) Count() (int, error) {
	n, err := ix.storage.Count()
	if err != nil {
		return 0, &domain.IndexUnavailableError{Op: "count", Err: err}
	}
	return n, nil
}

// Upsert embeds every record text and stores the batch keyed by record id.
// The batch is embedded in full before anything is written, so an embedding
// failure leaves the storage untouched.
func (ix *Index) Upsert(records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([][]float64, len(records))
	for i, rec := range records {
		vec, err := ix.embed(rec.Text)
		if err != nil {
			return err
		}
		vectors[i] = vec
	}
	if err := ix.ensureInit(len(vectors[0])); err != nil {
		return err
	}
	if err := ix.storage.Upsert(records, vectors); err != nil {
		return &domain.IndexUnavailableError{Op: "upsert", Err: err}
	}
	return nil
}

// Query returns up to k stored records ordered by descending similarity to
// the query text.
func (ix *Index) Query(text string, k int) ([]domain.SearchHit, error) {
	vec, err := ix.embed(text)
	if err != nil {
		return nil, err
	}
	if err := ix.ensureInit(len(vec)); err != nil {
		return nil, err
	}
	hits, err := ix.storage.Search(vec, k)
	if err != nil {
		return nil, &domain.IndexUnavailableError{Op: "search", Err: err}
	}
	return hits, nil
}

// Marker reads the persisted ingestion marker, or "" when the storage does
// not keep one.
func (ix *Index) Marker() (string, bool, error) {
	v, ok := ix.storage.(vectorstore.Versioned)
	if !ok {
		return "", false, nil
	}
	marker, err := v.IngestMarker()
	if err != nil {
		return "", true, &domain.IndexUnavailableError{Op: "read marker", Err: err}
	}
	return marker, true, nil
}

// SetMarker persists the ingestion marker on storages that support it.
func (ix *Index) SetMarker(marker string) error {
	v, ok := ix.storage.(vectorstore.Versioned)
	if !ok {
		return nil
	}
	if err := v.SetIngestMarker(marker); err != nil {
		return &domain.IndexUnavailableError{Op: "write marker", Err: err}
	}
	return nil
}

func (ix *Index) Clear() error {
	if err := ix.storage.Clear(); err != nil {
		return &domain.IndexUnavailableError{Op: "clear", Err: err}
	}
	return nil
}

func (ix *Index) embed(text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.EmbeddingError{Err: errors.New("empty text")}
	}
	vec, err := ix.embedder.Embed(text)
	if err != nil {
		return nil, &domain.EmbeddingError{Err: err}
	}
	if len(vec) == 0 {
		return nil, &domain.EmbeddingError{Err: errors.New("embedder returned empty vector")}
	}
	return vec, nil
}

func (ix *Index) ensureInit(dimension int) error {
	if ix.inited {
		return nil
	}
	if err := ix.storage.Init(dimension); err != nil {
		return &domain.IndexUnavailableError{Op: "init", Err: err}
	}
	ix.inited = true
	return nil
}
