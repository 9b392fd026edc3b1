package domain

// Record is the unit stored in the vector index: one natural-language
// sentence derived from a dataset row plus filtering metadata.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// SearchHit is a stored record with its similarity score to a query.
type SearchHit struct {
	Record Record
	Score  float64
}
