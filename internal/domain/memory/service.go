package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slog"
)

const DefaultSearchLimit = 10

type Servicer interface {
	Create(ctx context.Context, in CreateInput) (*Entry, error)
	Get(ctx context.Context, id int) (*Entry, error)
	Update(ctx context.Context, id int, in UpdateInput) (*Entry, error)
	Delete(ctx context.Context, id int) (bool, error)
	Search(ctx context.Context, q Query) ([]Entry, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// Service синхронизирует реляционные записи с векторным индексом.
// Между двумя хранилищами нет транзакции, ошибка индекса возвращается как есть.
type Service struct {
	repo      Repository
	index     Index
	optimizer Optimizer
	counter   TokenCounter
	maxTokens int
	order     SearchOrder
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Service)

func WithOptimizer(o Optimizer) Option {
	return func(s *Service) {
		s.optimizer = o
	}
}

// WithTokenCounter включает подсчёт токенов индексируемого текста.
// maxTokens > 0 включает предупреждение о слишком длинных записях.
func WithTokenCounter(c TokenCounter, maxTokens int) Option {
	return func(s *Service) {
		s.counter = c
		s.maxTokens = maxTokens
	}
}

func WithSearchOrder(order SearchOrder) Option {
	return func(s *Service) {
		s.order = order
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, index Index, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		index:     index,
		optimizer: IdentityOptimizer{},
		order:     OrderExternal,
		now:       time.Now,
		log:       log.With("component", "memory_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Entry, error) {
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}

	meta := in.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	e := &Entry{
		UserID:         in.UserID,
		Content:        in.Content,
		Meta:           meta,
		RelevanceScore: in.RelevanceScore,
		ExpiresAt:      in.ExpiresAt,
	}

	// id нужен до индексации: он уходит в метаданные
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}

	if err := s.addToIndex(ctx, e); err != nil {
		return nil, err
	}

	s.log.Debug("memory created", "memory_id", e.ID, "user_id", e.UserID)
	return e, nil
}

// Get ищет только по первичному ключу, владельца проверяет HTTP слой
func (s *Service) Get(ctx context.Context, id int) (*Entry, error) {
	e, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory %d: %w", id, err)
	}
	return e, nil
}

// Update применяет заданные поля и полностью переиндексирует запись
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}

	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
		}
		e.Content = *in.Content
	}
	if in.Meta != nil {
		e.Meta = in.Meta
	}
	switch {
	case in.ClearRelevanceScore:
		e.RelevanceScore = nil
	case in.RelevanceScore != nil:
		e.RelevanceScore = in.RelevanceScore
	}
	switch {
	case in.ClearExpiresAt:
		e.ExpiresAt = nil
	case in.ExpiresAt != nil:
		e.ExpiresAt = in.ExpiresAt
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update memory %d: %w", id, err)
	}

	if err := s.deleteFromIndex(ctx, e); err != nil {
		return nil, err
	}
	if err := s.addToIndex(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// Delete сначала удаляет из индекса: при его ошибке обе стороны остаются нетронутыми
func (s *Service) Delete(ctx context.Context, id int) (bool, error) {
	e, err := s.Get(ctx, id)
	if err != nil || e == nil {
		return false, err
	}

	if err := s.deleteFromIndex(ctx, e); err != nil {
		return false, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete memory %d: %w", id, err)
	}

	s.log.Debug("memory deleted", "memory_id", id, "user_id", e.UserID)
	return true, nil
}

func (s *Service) Search(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits, err := s.index.Search(ctx, Collection(q.UserID), q.Text, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrIndex, err)
	}

	ids := make([]int, 0, len(hits))
	seen := make(map[int]struct{}, len(hits))
	for _, h := range hits {
		id, ok := memoryID(h.Metadata)
		if !ok {
			s.log.Warn("search hit without memory_id", "hit_id", h.ID)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return []Entry{}, nil
	}

	rows, err := s.repo.FindByIDs(ctx, q.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("find memories: %w", err)
	}

	byID := make(map[int]Entry, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	result := make([]Entry, 0, len(rows))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok || e.Score() < q.MinRelevance {
			continue
		}
		result = append(result, e)
	}

	if s.order == OrderRelevance {
		slices.SortStableFunc(result, func(a, b Entry) int {
			return cmp.Compare(b.Score(), a.Score())
		})
	}

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CleanupExpired удаляет записи с истёкшим сроком. Останавливается на первой ошибке,
// возвращая число уже удалённых.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}

	count := 0
	for _, e := range expired {
		ok, err := s.Delete(ctx, e.ID)
		if err != nil {
			return count, fmt.Errorf("cleanup memory %d: %w", e.ID, err)
		}
		if ok {
			count++
		}
	}

	if count > 0 {
		s.log.Info("expired memories cleaned up", "count", count)
	}
	return count, nil
}

func (s *Service) addToIndex(ctx context.Context, e *Entry) error {
	content, ratio := s.optimizer.Reduce(e.Content)

	if s.counter != nil {
		// собственная оценка оптимизатора заменяется измеренной
		ratio = ReductionRatio(s.counter, e.Content, content)
		tokens := s.counter.Count(content)
		if s.maxTokens > 0 && tokens > s.maxTokens {
			s.log.Warn("memory exceeds token budget", "memory_id", e.ID, "tokens", tokens, "max", s.maxTokens)
		}
		s.log.Debug("memory content prepared", "memory_id", e.ID, "tokens", tokens, "reduction", ratio)
	}

	embedding, err := s.index.Add(ctx, Collection(e.UserID), strconv.Itoa(e.ID), content, s.metadata(e))
	if err != nil {
		return fmt.Errorf("%w: add memory %d: %w", ErrIndex, e.ID, err)
	}

	if len(embedding) == 0 {
		return nil
	}

	encoded := EncodeEmbedding(embedding)
	if err := s.repo.SetEmbedding(ctx, e.ID, encoded); err != nil {
		return fmt.Errorf("store embedding %d: %w", e.ID, err)
	}
	e.Embedding = &encoded

	return nil
}

func (s *Service) deleteFromIndex(ctx context.Context, e *Entry) error {
	if err := s.index.Delete(ctx, Collection(e.UserID), strconv.Itoa(e.ID)); err != nil {
		return fmt.Errorf("%w: delete memory %d: %w", ErrIndex, e.ID, err)
	}
	return nil
}

// metadata: пользовательские поля плюс служебные, служебные приоритетнее
func (s *Service) metadata(e *Entry) map[string]any {
	md := make(map[string]any, len(e.Meta)+4)
	for k, v := range e.Meta {
		md[k] = v
	}

	md["memory_id"] = strconv.Itoa(e.ID)
	md["user_id"] = e.UserID
	md["created_at"] = e.CreatedAt.UTC().Format(time.RFC3339)
	if e.RelevanceScore != nil {
		md["relevance_score"] = *e.RelevanceScore
	} else {
		md["relevance_score"] = nil
	}

	return md
}

func memoryID(md map[string]any) (int, bool) {
	switch v := md["memory_id"].(type) {
	case string:
		id, err := strconv.Atoi(v)
		return id, err == nil
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
