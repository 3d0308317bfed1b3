// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/safe-harbor/internal/model"
)

// SnapshotFilter narrows a snapshot listing.
type SnapshotFilter struct {
	PropertyName string
	Limit        int
}

// Storage defines the contract for our persistence layer. Only point-in-time
// compliance snapshots are stored; analyses are always recomputed.
type Storage interface {
	SaveSnapshot(ctx context.Context, snapshot *model.ComplianceSnapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.ComplianceSnapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.ComplianceSnapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter defines the contract for exporting a compliance snapshot.
type ReportWriter interface {
	Write(ctx context.Context, snapshot *model.ComplianceSnapshot) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
