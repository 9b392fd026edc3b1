// Package memory provides an in-memory vector store using brute-force
// cosine similarity. It doubles as the test double for the pipeline.
package memory

import (
	"errors"
	"sort"
	"sync"

	"stocksense/internal/domain"
	"stocksense/internal/vectorstore"
)

type entry struct {
	record domain.Record
	vector []float64
}

// Storage keeps records in a map keyed by record id.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
	marker    string
}

func NewStorage() *Storage {
	return &Storage{entries: make(map[string]entry)}
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return errors.New("dimension mismatch with existing data")
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *Storage) Upsert(records []domain.Record, vectors [][]float64) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, rec := range records {
		s.entries[rec.ID] = entry{record: rec, vector: vectors[i]}
	}
	return nil
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	hits := make([]domain.SearchHit, 0, len(s.entries))
	for _, e := range s.entries {
		hits = append(hits, domain.SearchHit{
			Record: e.record,
			Score:  vectorstore.Cosine(e.vector, vector),
		})
	}
	// score desc, id asc for deterministic ties
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func (s *Storage) IngestMarker() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marker, nil
}

func (s *Storage) SetIngestMarker(marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = marker
	return nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	s.marker = ""
	return nil
}
