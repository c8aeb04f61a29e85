// Package store persists gate-result artifacts. Stored results are
// immutable audit records keyed by the chain hash of their canonical
// payload; writing the same artifact twice is a no-op.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

type StoredResult struct {
	WitnessHash string          `json:"witnessHash"`
	Profile     string          `json:"profile"`
	Result      string          `json:"result"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// EnsureSchema creates the artifact table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `CREATE TABLE IF NOT EXISTS gate_results(
		witness_hash TEXT PRIMARY KEY,
		profile      TEXT NOT NULL,
		result       TEXT NOT NULL,
		payload      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

func (s *Store) PutResult(ctx context.Context, witnessHash, profile, result string, payload []byte) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO gate_results(witness_hash,profile,result,payload) VALUES($1,$2,$3,$4)
		 ON CONFLICT (witness_hash) DO NOTHING`,
		witnessHash, profile, result, payload)
	return err
}

func (s *Store) GetResult(ctx context.Context, witnessHash string) (StoredResult, error) {
	var r StoredResult
	err := s.DB.QueryRow(ctx,
		`SELECT witness_hash,profile,result,payload,created_at FROM gate_results WHERE witness_hash=$1`,
		witnessHash).
		Scan(&r.WitnessHash, &r.Profile, &r.Result, &r.Payload, &r.CreatedAt)
	return r, err
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]StoredResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx,
		`SELECT witness_hash,profile,result,payload,created_at FROM gate_results
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(&r.WitnessHash, &r.Profile, &r.Result, &r.Payload, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IsNotFound reports whether err is the no-rows sentinel.
func IsNotFound(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
