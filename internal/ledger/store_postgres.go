package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"metaregistry/internal/domain"
	"metaregistry/pkg/sentinel"
)

// Schema for the metadata_records table. Applied by EnsureSchema at startup;
// production deployments run it through their migration tooling instead.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata_records (
    content_hash BYTEA PRIMARY KEY,
    gateway      TEXT NOT NULL,
    path         TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL,
    writer       BYTEA NOT NULL,
    active       BOOLEAN NOT NULL,
    domain_id    BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS metadata_records_writer_idx ON metadata_records (writer);
CREATE INDEX IF NOT EXISTS metadata_records_domain_idx ON metadata_records (domain_id);
`

// PostgresStore persists the ledger in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

const selectColumns = `content_hash, gateway, path, created_at, updated_at, writer, active, domain_id`

func (s *PostgresStore) Get(ctx context.Context, hash domain.Hash) (domain.MetadataRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM metadata_records WHERE content_hash = $1`, hash[:])
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MetadataRecord{}, sentinel.ErrNotFound
		}
		return domain.MetadataRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, record domain.MetadataRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata_records (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_hash) DO UPDATE SET
			gateway = EXCLUDED.gateway,
			path = EXCLUDED.path,
			updated_at = EXCLUDED.updated_at,
			active = EXCLUDED.active
	`, record.Hash[:], record.Gateway, record.Path, record.CreatedAt, record.UpdatedAt,
		record.Writer[:], record.Active, int64(record.DomainID))
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByWriter(ctx context.Context, writer domain.Address) ([]domain.MetadataRecord, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM metadata_records WHERE writer = $1 ORDER BY created_at`, writer[:])
}

func (s *PostgresStore) ByDomain(ctx context.Context, domainID uint64) ([]domain.MetadataRecord, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM metadata_records WHERE domain_id = $1 ORDER BY created_at`, int64(domainID))
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]domain.MetadataRecord, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM metadata_records ORDER BY created_at OFFSET $1 LIMIT $2`, offset, limit)
}

func (s *PostgresStore) Counts(ctx context.Context) (total, active uint64, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM metadata_records`)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count records: %w", err)
	}
	return total, active, nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]domain.MetadataRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []domain.MetadataRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.MetadataRecord, error) {
	var (
		rec      domain.MetadataRecord
		hash     []byte
		writer   []byte
		domainID int64
	)
	err := row.Scan(&hash, &rec.Gateway, &rec.Path, &rec.CreatedAt, &rec.UpdatedAt, &writer, &rec.Active, &domainID)
	if err != nil {
		return domain.MetadataRecord{}, err
	}
	copy(rec.Hash[:], hash)
	copy(rec.Writer[:], writer)
	rec.DomainID = uint64(domainID)
	return rec, nil
}
