// Package testutil provides shared test infrastructure: isolated snapshot
// databases and rent roll fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/service"
	"github.com/Veraticus/safe-harbor/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory, migrated snapshot database.
// It is closed automatically when the test finishes.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	err := db.Storage.SaveSnapshot(ctx, snap)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return &TestDB{Storage: store, t: t}
}

// MustSave stores snapshots or fails the test. IDs are assigned on save.
func (db *TestDB) MustSave(snaps ...*model.ComplianceSnapshot) {
	db.t.Helper()
	for _, snap := range snaps {
		if err := db.Storage.SaveSnapshot(context.Background(), snap); err != nil {
			db.t.Fatalf("failed to save snapshot for %q: %v", snap.PropertyName, err)
		}
	}
}

// MustList returns every snapshot for property, newest first, or fails the test.
func (db *TestDB) MustList(property string) []model.ComplianceSnapshot {
	db.t.Helper()
	snaps, err := db.Storage.ListSnapshots(context.Background(), service.SnapshotFilter{PropertyName: property})
	if err != nil {
		db.t.Fatalf("failed to list snapshots: %v", err)
	}
	return snaps
}
