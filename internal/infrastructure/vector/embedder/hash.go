package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const DefaultHashDimensions = 384

// HashEmbedder - локальный детерминированный эмбеддер без модели.
// Каждое слово даёт псевдослучайный вектор из своего хэша, вектор текста - их сумма,
// поэтому тексты с общими словами близки по косинусу.
type HashEmbedder struct {
	dimensions int
}

func NewHash(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	embedding := make([]float32, h.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		words = []string{text}
	}

	for _, w := range words {
		f := fnv.New64a()
		f.Write([]byte(w))
		seed := f.Sum64()

		for i := 0; i < h.dimensions; i++ {
			// LCG, значения в [-1, 1]
			seed = seed*6364136223846793005 + 1442695040888963407
			embedding[i] += float32(int64(seed)) / float32(math.MaxInt64)
		}
	}

	return normalize(embedding), nil
}

func (h *HashEmbedder) Dimensions() int {
	return h.dimensions
}
