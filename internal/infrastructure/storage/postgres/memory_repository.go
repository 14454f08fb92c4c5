package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
)

const memoryColumns = `id, user_id, content, meta, embedding, relevance_score, created_at, updated_at, expires_at`

type MemoryRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewMemoryRepository(pool *pgxpool.Pool, log *slog.Logger) *MemoryRepository {
	return &MemoryRepository{
		pool: pool,
		log:  log.With("component", "memory_repository"),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, e *memory.Entry) error {
	const query = `
		INSERT INTO memory_entries (user_id, content, meta, embedding, relevance_score, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		e.UserID, e.Content, metaOrEmpty(e.Meta), e.Embedding, e.RelevanceScore, e.ExpiresAt).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if code, _ := pgCode(err); code == codeForeignKeyViolation {
			return fmt.Errorf("%w: owner %d does not exist", memory.ErrInvalidInput, e.UserID)
		}
		r.log.Error("failed to create memory", "user_id", e.UserID, "error", err)
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id int) (*memory.Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memoryColumns+` FROM memory_entries WHERE id = $1`, id)

	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to get memory", "memory_id", id, "error", err)
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return e, nil
}

func (r *MemoryRepository) Update(ctx context.Context, e *memory.Entry) error {
	const query = `
		UPDATE memory_entries
		SET content = $1, meta = $2, relevance_score = $3, expires_at = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		e.Content, metaOrEmpty(e.Meta), e.RelevanceScore, e.ExpiresAt, e.ID).
		Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return memory.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	return nil
}

func (r *MemoryRepository) SetEmbedding(ctx context.Context, id int, embedding string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE memory_entries SET embedding = $1 WHERE id = $2`, embedding, id)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return memory.ErrNotFound
	}
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memory_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return memory.ErrNotFound
	}
	return nil
}

func (r *MemoryRepository) FindByIDs(ctx context.Context, userID int, ids []int) ([]memory.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+memoryColumns+` FROM memory_entries WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids)
	if err != nil {
		return nil, fmt.Errorf("find memories: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *MemoryRepository) ListExpired(ctx context.Context, before time.Time) ([]memory.Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memoryColumns+` FROM memory_entries
		 WHERE expires_at IS NOT NULL AND expires_at < $1
		 ORDER BY id`,
		before)
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]memory.Entry, error) {
	var entries []memory.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(row interface {
	Scan(dest ...any) error
}) (*memory.Entry, error) {
	var e memory.Entry

	// jsonb декодируется pgx через encoding/json
	err := row.Scan(&e.ID, &e.UserID, &e.Content, &e.Meta, &e.Embedding, &e.RelevanceScore,
		&e.CreatedAt, &e.UpdatedAt, &e.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	return &e, nil
}

func metaOrEmpty(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
