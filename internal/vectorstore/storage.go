package vectorstore

import (
	"math"

	"stocksense/internal/domain"
)

// Storage persists id-keyed records with their vectors and supports
// similarity search. Upsert replaces an existing record with the same id,
// so Count reports distinct ids.
type Storage interface {
	Init(dimension int) error
	Count() (int, error)
	Upsert(records []domain.Record, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SearchHit, error)
	Clear() error
}

// Versioned storages additionally persist an ingestion marker so a restart
// can tell a completed ingestion run from a partial one. Storages without
// marker support fall back to the count-only guard.
type Versioned interface {
	IngestMarker() (string, error)
	SetIngestMarker(marker string) error
}

// Cosine returns the cosine similarity of a and b.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
