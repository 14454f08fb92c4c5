package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
)

const memoryColumns = `id, user_id, content, meta, embedding, relevance_score, created_at, updated_at, expires_at`

type MemoryRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMemoryRepository(db *sql.DB, log *slog.Logger) *MemoryRepository {
	return &MemoryRepository{
		db:  db,
		log: log.With("component", "memory_repository"),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, e *memory.Entry) error {
	meta, err := marshalMeta(e.Meta)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO memory_entries (user_id, content, meta, embedding, relevance_score, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		e.UserID, e.Content, meta, e.Embedding, e.RelevanceScore, ts(now), ts(now), nullTS(e.ExpiresAt)).
		Scan(&e.ID)
	if err != nil {
		if isForeignKey(err) {
			return fmt.Errorf("%w: owner %d does not exist", memory.ErrInvalidInput, e.UserID)
		}
		r.log.Error("failed to create memory", "user_id", e.UserID, "error", err)
		return fmt.Errorf("insert memory: %w", err)
	}

	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id int) (*memory.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memory_entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to get memory", "memory_id", id, "error", err)
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return e, nil
}

func (r *MemoryRepository) Update(ctx context.Context, e *memory.Entry) error {
	meta, err := marshalMeta(e.Meta)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE memory_entries
		 SET content = ?, meta = ?, relevance_score = ?, expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		e.Content, meta, e.RelevanceScore, nullTS(e.ExpiresAt), ts(now), e.ID)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}

	if err := affected(res); err != nil {
		return err
	}

	e.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) SetEmbedding(ctx context.Context, id int, embedding string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE memory_entries SET embedding = ? WHERE id = ?`, embedding, id)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	return affected(res)
}

func (r *MemoryRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memory_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return affected(res)
}

func (r *MemoryRepository) FindByIDs(ctx context.Context, userID int, ids []int) ([]memory.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memoryColumns+` FROM memory_entries WHERE user_id = ? AND id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("find memories: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *MemoryRepository) ListExpired(ctx context.Context, before time.Time) ([]memory.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memoryColumns+` FROM memory_entries
		 WHERE expires_at IS NOT NULL AND expires_at < ?
		 ORDER BY id`,
		ts(before))
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]memory.Entry, error) {
	var entries []memory.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (*memory.Entry, error) {
	var (
		e         memory.Entry
		meta      string
		embedding sql.NullString
		score     sql.NullFloat64
		expiresAt sql.NullTime
	)

	err := row.Scan(&e.ID, &e.UserID, &e.Content, &meta, &embedding, &score,
		&e.CreatedAt, &e.UpdatedAt, &expiresAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(meta), &e.Meta); err != nil {
		return nil, fmt.Errorf("decode meta of memory %d: %w", e.ID, err)
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	if embedding.Valid {
		e.Embedding = &embedding.String
	}
	if score.Valid {
		e.RelevanceScore = &score.Float64
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		e.ExpiresAt = &t
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	return &e, nil
}

func marshalMeta(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("%w: meta: %v", memory.ErrInvalidInput, err)
	}
	return string(b), nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return memory.ErrNotFound
	}
	return nil
}
