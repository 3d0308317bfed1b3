package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/compliance"
	"github.com/Veraticus/safe-harbor/internal/config"
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/rentroll"
	"github.com/Veraticus/safe-harbor/internal/service"
	"github.com/Veraticus/safe-harbor/internal/storage"
)

// initStorage opens the configured snapshot store and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbCfg, err := config.LoadDatabaseConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	var store service.Storage
	switch dbCfg.Driver {
	case config.DriverPostgres:
		store, err = storage.NewPostgresStorage(ctx, dbCfg.URL)
	default:
		store, err = storage.NewSQLiteStorage(dbCfg.Path)
	}
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("Opened snapshot store", "driver", dbCfg.Driver)
	return store, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// newEngine builds a compliance engine from the configured income limits and thresholds.
func newEngine() (*compliance.Engine, *incomelimits.Table, error) {
	v := viper.GetViper()

	table, err := config.LoadIncomeTable(v)
	if err != nil {
		return nil, nil, err
	}
	thresholds, err := config.LoadThresholds(v)
	if err != nil {
		return nil, nil, err
	}

	engine, err := compliance.NewEngine(table, thresholds)
	if err != nil {
		return nil, nil, err
	}
	common.LogDebug("Loaded income limits", common.Fields{
		"area": table.Area(),
		"year": table.Year(),
	})
	return engine, table, nil
}

// loadRentRoll parses a rent roll CSV. A path of "-" reads from in.
func loadRentRoll(path string, in io.Reader) ([]model.UnitIncomeRecord, error) {
	if path == "-" {
		return rentroll.Parse(in)
	}

	f, err := os.Open(config.ExpandPath(path)) //nolint:gosec // user-supplied rent roll path
	if err != nil {
		return nil, common.NewUserError("could not open rent roll "+path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := rentroll.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// propertyNameFromPath derives a property name from a rent roll file name:
// "rent-rolls/elm_court.csv" becomes "elm court".
func propertyNameFromPath(path string) string {
	if path == "-" || path == "" {
		return "Property"
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}

// splitPropertyArg splits "Name=path" into its parts; a bare path is named after its file.
func splitPropertyArg(arg string) (name, path string) {
	if i := strings.Index(arg, "="); i > 0 {
		return strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:])
	}
	return propertyNameFromPath(arg), arg
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// saveSnapshot records a point-in-time copy of result.
func saveSnapshot(ctx context.Context, store service.Storage, property, source string, table *incomelimits.Table, result *model.ComplianceResult) (*model.ComplianceSnapshot, error) {
	snap := model.NewSnapshot(property, table.Area(), table.Year(), source, result)
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	common.LogInfo("Saved compliance snapshot", common.Fields{
		"id":       snap.ID,
		"property": property,
		"status":   string(snap.Status),
	})
	return snap, nil
}
