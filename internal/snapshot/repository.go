package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/walletview/internal/domain"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 24

// RateSnapshot is a stored exchange-rate table.
type RateSnapshot struct {
	ID        int                  `json:"id"`
	TakenAt   time.Time            `json:"takenAt"`
	Rates     domain.ExchangeRates `json:"rates"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Repository defines persistent storage for rate snapshots.
type Repository interface {
	Save(ctx context.Context, takenAt time.Time, rates domain.ExchangeRates) error
	GetLatest(ctx context.Context) (*RateSnapshot, error)
	GetNearestBefore(ctx context.Context, at time.Time) (*RateSnapshot, error)
	List(ctx context.Context, limit int) ([]RateSnapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save stores rates under takenAt, replacing a snapshot taken at the same instant.
func (r *PgRepository) Save(ctx context.Context, takenAt time.Time, rates domain.ExchangeRates) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshaling rates: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO rate_snapshots (taken_at, rates)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (taken_at)
		 DO UPDATE SET rates = $2::jsonb`,
		takenAt.UTC(), data)
	if err != nil {
		return fmt.Errorf("saving rate snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context) (*RateSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, taken_at, rates, created_at
		 FROM rate_snapshots
		 ORDER BY taken_at DESC
		 LIMIT 1`)
	s, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest rate snapshot: %w", err)
	}
	return s, nil
}

// GetNearestBefore returns the newest snapshot taken at or before at.
func (r *PgRepository) GetNearestBefore(ctx context.Context, at time.Time) (*RateSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, taken_at, rates, created_at
		 FROM rate_snapshots
		 WHERE taken_at <= $1
		 ORDER BY taken_at DESC
		 LIMIT 1`, at.UTC())
	s, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting rate snapshot before %s: %w", at.Format(time.RFC3339), err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]RateSnapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, taken_at, rates, created_at
		 FROM rate_snapshots
		 ORDER BY taken_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing rate snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []RateSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rate snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rate snapshots: %w", err)
	}
	return snapshots, nil
}

func scanSnapshot(row pgx.Row) (*RateSnapshot, error) {
	var (
		s    RateSnapshot
		data []byte
	)
	if err := row.Scan(&s.ID, &s.TakenAt, &data, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.Rates); err != nil {
		return nil, fmt.Errorf("decoding rates of snapshot %d: %w", s.ID, err)
	}
	return &s, nil
}
