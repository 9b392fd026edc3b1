// Package sqlite persists vectors in a local SQLite database, giving the
// index durable collections without an external service.
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"stocksense/internal/domain"
	"stocksense/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)
var _ vectorstore.Versioned = (*Storage)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	vector     BLOB NOT NULL,
	text       TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS ingest_meta (
	collection TEXT PRIMARY KEY,
	marker     TEXT NOT NULL
);
`

// Storage is a SQLite-backed vector store scoped to one collection.
type Storage struct {
	db         *sql.DB
	collection string
	dimension  int
}

// NewStorage opens (creating if needed) the database at dir/stocksense.db.
func NewStorage(dir, collection string) (*Storage, error) {
	if collection == "" {
		return nil, errors.New("collection name required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dir, "stocksense.db")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Storage{db: db, collection: collection}, nil
}

func (s *Storage) Close() error { return s.db.Close() }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	if s.dimension != 0 && s.dimension != dimension {
		return errors.New("dimension mismatch with existing data")
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM records WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Upsert writes the whole batch in one transaction: a batch either commits
// or leaves the collection untouched.
func (s *Storage) Upsert(records []domain.Record, vectors [][]float64) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO records (collection, id, vector, text, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			metadata = excluded.metadata`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()
	for i, rec := range records {
		if s.dimension != 0 && len(vectors[i]) != s.dimension {
			tx.Rollback()
			return errors.New("vector dimension mismatch")
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := stmt.Exec(s.collection, rec.ID, encodeVector(vectors[i]), rec.Text, string(meta)); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert record %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Search scans the collection and ranks by cosine similarity. Fine for the
// tens of thousands of rows a price history holds.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchHit, error) {
	if topK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	rows, err := s.db.Query(`SELECT id, vector, text, metadata FROM records WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var (
			id, text, meta string
			blob           []byte
		)
		if err := rows.Scan(&id, &blob, &text, &meta); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		metadata := map[string]string{}
		if err := json.Unmarshal([]byte(meta), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", id, err)
		}
		hits = append(hits, domain.SearchHit{
			Record: domain.Record{ID: id, Text: text, Metadata: metadata},
			Score:  vectorstore.Cosine(decodeVector(blob), vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
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
	var marker string
	err := s.db.QueryRow(`SELECT marker FROM ingest_meta WHERE collection = ?`, s.collection).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read ingest marker: %w", err)
	}
	return marker, nil
}

func (s *Storage) SetIngestMarker(marker string) error {
	_, err := s.db.Exec(`
		INSERT INTO ingest_meta (collection, marker) VALUES (?, ?)
		ON CONFLICT (collection) DO UPDATE SET marker = excluded.marker`,
		s.collection, marker)
	if err != nil {
		return fmt.Errorf("write ingest marker: %w", err)
	}
	return nil
}

func (s *Storage) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM records WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM ingest_meta WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("clear ingest marker: %w", err)
	}
	return nil
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float64 {
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v
}
