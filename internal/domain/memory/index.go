package memory

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Hit - результат поиска во внешнем индексе
type Hit struct {
	ID       string
	Metadata map[string]any
	Score    float64
}

// Index - внешний векторный индекс памяти. Вторичный по отношению к Repository.
type Index interface {
	// Add индексирует документ и возвращает эмбеддинг, если сервис его отдал
	Add(ctx context.Context, collection, id, content string, metadata map[string]any) ([]float32, error)
	Delete(ctx context.Context, collection, id string) error
	// Search возвращает попадания в порядке ранжирования индекса
	Search(ctx context.Context, collection, query string, limit int) ([]Hit, error)
}

// EncodeEmbedding упаковывает вектор в base64 little-endian float32
func EncodeEmbedding(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func DecodeEmbedding(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("decode embedding: %d bytes is not a float32 vector", len(buf))
	}

	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
