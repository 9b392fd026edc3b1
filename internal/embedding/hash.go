package embedding

import (
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultHashDimension is the bucket count of the hashing embedder.
const DefaultHashDimension = 512

// HashEmbedder is a local, dependency-free embedder using the hashing
// trick: tokens are bucketed by FNV hash and term frequencies are
// L2-normalized. Unlike a fitted TF-IDF vectorizer it needs no corpus pass,
// so index-time and query-time embedding share no state.
type HashEmbedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+(?:[.\-/]\p{N}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (e *HashEmbedder) Name() string { return "hash" }

func (e *HashEmbedder) Dimension() int { return e.dimension }

func (e *HashEmbedder) Embed(text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}
	vec := make([]float64, e.dimension)
	tokens := e.tokenize(text)
	total := 0
	for _, tok := range tokens {
		vec[e.bucket(tok)]++
		total++
	}
	if total == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= float64(total)
	}
	// L2 normalize so dot products are cosine similarities
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *HashEmbedder) bucket(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(e.dimension))
}

func (e *HashEmbedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
