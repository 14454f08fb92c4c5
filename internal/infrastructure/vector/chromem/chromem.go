package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
	"memvoice/internal/infrastructure/vector/embedder"
)

// Store - встроенный векторный индекс на chromem-go, коллекция на пользователя
type Store struct {
	db          *chromem.DB
	embed       embedder.Embedder
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	log         *slog.Logger
}

// New создаёт индекс. Пустой path - только в памяти, иначе база сохраняется на диск.
func New(path string, emb embedder.Embedder, log *slog.Logger) (*Store, error) {
	db := chromem.NewDB()
	if path != "" {
		var err error
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("open chromem db %s: %w", path, err)
		}
	}

	return &Store{
		db:          db,
		embed:       emb,
		collections: make(map[string]*chromem.Collection),
		log:         log.With("component", "chromem_index"),
	}, nil
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[name]
	s.mu.RUnlock()

	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, exists := s.collections[name]; exists {
		return col, nil
	}

	col, err := s.db.GetOrCreateCollection(name, nil, s.embed.Embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.collections[name] = col
	return col, nil
}

func (s *Store) Add(ctx context.Context, collection, id, content string, metadata map[string]any) ([]float32, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	vec, err := s.embed.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: vec,
		Metadata:  flatten(metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}

	s.log.Debug("document indexed", "collection", collection, "id", id)
	return vec, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, collection, query string, limit int) ([]memory.Hit, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem-go requires nResults <= collection size
	n := min(limit, col.Count())
	if n <= 0 {
		return nil, nil
	}

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]memory.Hit, 0, len(results))
	for _, r := range results {
		md := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			md[k] = v
		}
		hits = append(hits, memory.Hit{ID: r.ID, Metadata: md, Score: float64(r.Similarity)})
	}
	return hits, nil
}

// flatten приводит метаданные к строкам: chromem хранит только map[string]string
func flatten(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			// Convert to JSON for non-string values
			if b, err := json.Marshal(val); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}
