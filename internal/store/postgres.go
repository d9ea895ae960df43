package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/likes-go/internal/likes"
)

// PostgresRepository is the durable store of like rows and item counters.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (p *PostgresRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx likes.Tx) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(ctx, &postgresTx{tx: tx})
	})
}

func (p *PostgresRepository) Exists(ctx context.Context, pair likes.Pair) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND item_id = $2)`

	var exists bool

	err := p.pool.QueryRow(ctx, query, int64(pair.UserID), int64(pair.ItemID)).Scan(&exists)

	return exists, err
}

func (p *PostgresRepository) Count(ctx context.Context, item likes.ItemID) (int64, error) {
	query := `SELECT like_count FROM items WHERE id = $1`

	var count int64

	err := p.pool.QueryRow(ctx, query, int64(item)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, err
	}

	return count, nil
}

// Ping checks connectivity.
func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) InsertLikes(ctx context.Context, rows []likes.Like) ([]likes.Pair, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	users := make([]int64, len(rows))
	items := make([]int64, len(rows))

	for i, row := range rows {
		ids[i] = row.ID.String()
		users[i] = int64(row.UserID)
		items[i] = int64(row.ItemID)
	}

	query := `
		INSERT INTO likes (id, user_id, item_id)
		SELECT * FROM unnest($1::uuid[], $2::bigint[], $3::bigint[])
		ON CONFLICT DO NOTHING
		RETURNING user_id, item_id
	`

	inserted, err := t.queryPairs(ctx, query, ids, users, items)
	if err != nil {
		return nil, fmt.Errorf("insert likes: %w", err)
	}

	return inserted, nil
}

func (t *postgresTx) DeleteLikes(ctx context.Context, pairs []likes.Pair) ([]likes.Pair, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	users := make([]int64, len(pairs))
	items := make([]int64, len(pairs))

	for i, pair := range pairs {
		users[i] = int64(pair.UserID)
		items[i] = int64(pair.ItemID)
	}

	query := `
		DELETE FROM likes l
		USING unnest($1::bigint[], $2::bigint[]) AS d(user_id, item_id)
		WHERE l.user_id = d.user_id AND l.item_id = d.item_id
		RETURNING l.user_id, l.item_id
	`

	deleted, err := t.queryPairs(ctx, query, users, items)
	if err != nil {
		return nil, fmt.Errorf("delete likes: %w", err)
	}

	return deleted, nil
}

func (t *postgresTx) queryPairs(ctx context.Context, query string, args ...any) ([]likes.Pair, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (likes.Pair, error) {
		var user, item int64

		err := row.Scan(&user, &item)

		return likes.Pair{UserID: likes.UserID(user), ItemID: likes.ItemID(item)}, err
	})
}

func (t *postgresTx) AdjustCounts(ctx context.Context, counts likes.AggregateCount) error {
	ids := make([]int64, 0, len(counts))

	for id, delta := range counts {
		if delta != 0 {
			ids = append(ids, int64(id))
		}
	}

	if len(ids) == 0 {
		return nil
	}

	// Fixed row order keeps concurrent adjustments from deadlocking.
	slices.Sort(ids)

	deltas := make([]int64, len(ids))
	for i, id := range ids {
		deltas[i] = counts[likes.ItemID(id)]
	}

	query := `
		INSERT INTO items (id, like_count)
		SELECT * FROM unnest($1::bigint[], $2::bigint[])
		ON CONFLICT (id) DO UPDATE
		SET like_count = items.like_count + EXCLUDED.like_count, updated_at = now()
	`

	if _, err := t.tx.Exec(ctx, query, ids, deltas); err != nil {
		return fmt.Errorf("adjust counts: %w", err)
	}

	return nil
}

var _ likes.Repository = (*PostgresRepository)(nil)
