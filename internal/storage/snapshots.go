package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/service"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

const snapshotColumns = `id, property_name, analyzed_at, area, year, denominator, status, deep_option, source, result_json`

// SaveSnapshot stores a point-in-time compliance snapshot. An ID is assigned if the snapshot has none.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *model.ComplianceSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := prepareSnapshot(snap); err != nil {
		return err
	}

	data, err := encodeResult(snap.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compliance_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.PropertyName, snap.AnalyzedAt, snap.Area, snap.Year, snap.Denominator,
		string(snap.Status), string(snap.Option), snap.Source, string(data))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: snapshot %s", common.ErrDuplicateEntry, snap.ID)
		}
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves a snapshot by ID.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*model.ComplianceSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM compliance_snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns snapshots newest first, optionally for a single property.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context, filter service.SnapshotFilter) ([]model.ComplianceSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + snapshotColumns + ` FROM compliance_snapshots`
	var args []any
	if filter.PropertyName != "" {
		query += ` WHERE property_name = ?`
		args = append(args, filter.PropertyName)
	}
	query += ` ORDER BY analyzed_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM compliance_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*model.ComplianceSnapshot, error) {
	var (
		snap   model.ComplianceSnapshot
		status string
		option string
		data   string
	)
	err := row.Scan(
		&snap.ID,
		&snap.PropertyName,
		&snap.AnalyzedAt,
		&snap.Area,
		&snap.Year,
		&snap.Denominator,
		&status,
		&option,
		&snap.Source,
		&data,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.Status = model.ComplianceStatus(status)
	snap.Option = model.DeepAffordabilityOption(option)
	snap.Result, err = decodeResult([]byte(data))
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
