package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pendingScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_extrinsics (
	chain          TEXT        NOT NULL,
	extrinsic_hash TEXT        NOT NULL,
	spec_version   BIGINT      NOT NULL,
	call_module    TEXT        NOT NULL,
	call_function  TEXT        NOT NULL,
	netuid         INTEGER,
	signer         TEXT,
	payload        JSONB       NOT NULL,
	first_seen_at  TIMESTAMPTZ NOT NULL,
	last_seen_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain, extrinsic_hash)
);
CREATE INDEX IF NOT EXISTS pending_extrinsics_call_idx
	ON pending_extrinsics (call_function, netuid);
`

const upsertPending = `
	INSERT INTO pending_extrinsics (
		chain, extrinsic_hash, spec_version, call_module, call_function, netuid, signer, payload, first_seen_at, last_seen_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	ON CONFLICT (chain, extrinsic_hash)
	DO UPDATE SET
		spec_version = EXCLUDED.spec_version,
		payload = EXCLUDED.payload,
		first_seen_at = LEAST(pending_extrinsics.first_seen_at, EXCLUDED.first_seen_at),
		last_seen_at = GREATEST(pending_extrinsics.last_seen_at, EXCLUDED.last_seen_at)
`

// Store persists matched pending extrinsics to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the pending_extrinsics table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutPending upserts records keyed by chain and extrinsic hash.
func (s *Store) PutPending(ctx context.Context, records []model.PendingRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := pendingArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(upsertPending, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert pending extrinsic: %w", err)
		}
	}
	return nil
}

func pendingArgs(rec model.PendingRecord) ([]interface{}, error) {
	payload, err := json.Marshal(rec.Extrinsic)
	if err != nil {
		return nil, fmt.Errorf("marshal extrinsic %s: %w", rec.Extrinsic.Hash, err)
	}
	seenAt, err := time.Parse(time.RFC3339Nano, rec.ObservedAt)
	if err != nil {
		return nil, fmt.Errorf("parse observed_at %q: %w", rec.ObservedAt, err)
	}

	var netuid *int32
	if rec.NetUID != nil {
		n := int32(*rec.NetUID)
		netuid = &n
	}
	var signer *string
	if rec.Signer != "" {
		signer = &rec.Signer
	}

	return []interface{}{
		rec.Chain,
		rec.Extrinsic.Hash,
		int64(rec.SpecVersion),
		rec.Extrinsic.Call.Module,
		rec.Extrinsic.Call.Function,
		netuid,
		signer,
		payload,
		seenAt,
	}, nil
}
