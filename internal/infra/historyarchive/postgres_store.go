package historyarchive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS aqi_history (
	location_key TEXT NOT NULL,
	day DATE NOT NULL,
	aqi INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (location_key, day)
)`

// PostgresStore persists daily series in the aqi_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create aqi_history: %w", err)
	}
	return nil
}

// Load implements historical.Archive.
func (s *PostgresStore) Load(ctx context.Context, locationKey string, from, to time.Time) ([]historical.ArchivedPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT day, aqi
		FROM aqi_history
		WHERE location_key = $1 AND day BETWEEN $2 AND $3
		ORDER BY day
	`, locationKey, dayOf(from), dayOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []historical.ArchivedPoint
	for rows.Next() {
		var (
			day time.Time
			aqi int32
		)
		if err := rows.Scan(&day, &aqi); err != nil {
			return nil, err
		}
		out = append(out, historical.ArchivedPoint{Day: dayOf(day), AQI: int(aqi)})
	}
	return out, rows.Err()
}

// Save implements historical.Archive. Existing days are kept.
func (s *PostgresStore) Save(ctx context.Context, locationKey string, points []historical.ArchivedPoint) error {
	if len(points) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO aqi_history (location_key, day, aqi)
			VALUES ($1, $2, $3)
			ON CONFLICT (location_key, day) DO NOTHING
		`, locationKey, dayOf(p.Day), p.AQI)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range points {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Prune implements Store.
func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM aqi_history WHERE day < $1`, dayOf(cutoff))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Close implements Store.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
