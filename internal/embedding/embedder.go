package embedding

// Embedder converts free text into a numeric vector representation.
// Implementations must be stateless: the same text always maps to the same
// vector, and queries embed without any corpus preparation.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(text string) ([]float64, error)
}
