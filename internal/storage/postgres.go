package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/service"
)

const (
	snapshotsTable    = "compliance_snapshots"
	pgUniqueViolation = "23505"
)

// pgMigrations mirror the SQLite migrations for PostgreSQL. Applied versions are
// tracked in schema_migrations.
var pgMigrations = []struct {
	Description string
	Statements  []string
	Version     int
}{
	{
		Version:     1,
		Description: "Initial schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS compliance_snapshots (
				id UUID PRIMARY KEY,
				property_name TEXT NOT NULL,
				analyzed_at TIMESTAMPTZ NOT NULL,
				area TEXT NOT NULL,
				year INTEGER NOT NULL,
				denominator INTEGER NOT NULL,
				status TEXT NOT NULL,
				deep_option TEXT NOT NULL DEFAULT '',
				result_json JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_snapshots_property ON compliance_snapshots(property_name, analyzed_at)`,
		},
	},
	{
		Version:     2,
		Description: "Track rent roll source and status index",
		Statements: []string{
			`ALTER TABLE compliance_snapshots ADD COLUMN IF NOT EXISTS source TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_snapshots_status ON compliance_snapshots(status)`,
		},
	},
}

// PostgresStorage implements service.Storage on PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewPostgresStorage connects to the database at url.
func NewPostgresStorage(ctx context.Context, url string) (*PostgresStorage, error) {
	if err := validateString(url, "url"); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{pool: pool, sb: newStatementBuilder()}, nil
}

func newStatementBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Close releases the connection pool.
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// Migrate applies all pending migrations.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := p.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range pgMigrations {
		if m.Version <= current {
			continue
		}

		err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
				m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}

		slog.Info("Applied migration",
			"version", m.Version,
			"description", m.Description)
	}

	var final int
	if err := p.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&final); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

// SaveSnapshot stores a point-in-time compliance snapshot.
func (p *PostgresStorage) SaveSnapshot(ctx context.Context, snap *model.ComplianceSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := prepareSnapshot(snap); err != nil {
		return err
	}

	query, args, err := p.insertSnapshotQuery(snap)
	if err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: snapshot %s", common.ErrDuplicateEntry, snap.ID)
		}
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by ID.
func (p *PostgresStorage) GetSnapshot(ctx context.Context, id string) (*model.ComplianceSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query, args, err := p.selectSnapshots().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	snap, err := scanSnapshot(p.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns snapshots newest first, optionally for a single property.
func (p *PostgresStorage) ListSnapshots(ctx context.Context, filter service.SnapshotFilter) ([]model.ComplianceSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args, err := p.listSnapshotsQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []model.ComplianceSnapshot
	for rows.Next() {
		snap, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// DeleteSnapshot removes a snapshot.
func (p *PostgresStorage) DeleteSnapshot(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query, args, err := p.sb.Delete(snapshotsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("snapshot %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (p *PostgresStorage) selectSnapshots() sq.SelectBuilder {
	return p.sb.Select(
		"id::text", "property_name", "analyzed_at", "area", "year", "denominator",
		"status", "deep_option", "source", "result_json::text",
	).From(snapshotsTable)
}

func (p *PostgresStorage) listSnapshotsQuery(filter service.SnapshotFilter) (string, []any, error) {
	q := p.selectSnapshots().OrderBy("analyzed_at DESC", "id")
	if filter.PropertyName != "" {
		q = q.Where(sq.Eq{"property_name": filter.PropertyName})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build query: %w", err)
	}
	return query, args, nil
}

func (p *PostgresStorage) insertSnapshotQuery(snap *model.ComplianceSnapshot) (string, []any, error) {
	data, err := encodeResult(snap.Result)
	if err != nil {
		return "", nil, err
	}

	query, args, err := p.sb.Insert(snapshotsTable).
		Columns("id", "property_name", "analyzed_at", "area", "year", "denominator",
			"status", "deep_option", "source", "result_json").
		Values(snap.ID, snap.PropertyName, snap.AnalyzedAt, snap.Area, snap.Year, snap.Denominator,
			string(snap.Status), string(snap.Option), snap.Source, string(data)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build query: %w", err)
	}
	return query, args, nil
}
