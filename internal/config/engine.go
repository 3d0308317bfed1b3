package config

import (
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/compliance"
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultDatabaseFile is the SQLite file name inside DataDir.
const DefaultDatabaseFile = "harbor.db"

// DatabaseConfig selects and locates the snapshot store.
type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

// LoadDatabaseConfig reads the database.* keys.
func LoadDatabaseConfig(v *viper.Viper) (DatabaseConfig, error) {
	cfg := DatabaseConfig{
		Driver: v.GetString("database.driver"),
		Path:   v.GetString("database.path"),
		URL:    v.GetString("database.url"),
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}

	switch cfg.Driver {
	case DriverSQLite:
		if cfg.Path == "" {
			dir, err := DataDir()
			if err != nil {
				return cfg, err
			}
			cfg.Path = filepath.Join(dir, DefaultDatabaseFile)
		}
		cfg.Path = ExpandPath(cfg.Path)
	case DriverPostgres:
		if cfg.URL == "" {
			return cfg, fmt.Errorf("%w: database.url is required for the postgres driver", common.ErrMissingConfig)
		}
	default:
		return cfg, fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, cfg.Driver)
	}
	return cfg, nil
}

// LoadThresholds reads thresholds.* over the standard Safe Harbor defaults.
// Values are percentages written as strings or numbers ("75", 75, "62.5").
func LoadThresholds(v *viper.Viper) (compliance.Thresholds, error) {
	th := compliance.DefaultThresholds()

	fields := []struct {
		dst *decimal.Decimal
		key string
	}{
		{&th.Qualifying, "thresholds.qualifying"},
		{&th.MarketRateCap, "thresholds.market_cap"},
		{&th.OptionA, "thresholds.option_a"},
		{&th.OptionB, "thresholds.option_b"},
	}
	for _, f := range fields {
		if !v.IsSet(f.key) {
			continue
		}
		d, err := decimal.NewFromString(v.GetString(f.key))
		if err != nil {
			return th, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, f.key, err)
		}
		*f.dst = d
	}

	if err := th.Validate(); err != nil {
		return th, err
	}
	return th, nil
}

// LoadIncomeTable resolves the income limit table. A YAML file named by
// income_limits.file wins; otherwise income_limits.median derives a table with
// HUD household-size factors; otherwise the built-in default table is used.
func LoadIncomeTable(v *viper.Viper) (*incomelimits.Table, error) {
	if path := v.GetString("income_limits.file"); path != "" {
		table, err := incomelimits.LoadFile(ExpandPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load income limits: %w", err)
		}
		return table, nil
	}

	if !v.IsSet("income_limits.median") {
		if v.IsSet("income_limits.area") || v.IsSet("income_limits.year") {
			return nil, fmt.Errorf("%w: income_limits.median is required with area or year", common.ErrMissingConfig)
		}
		return incomelimits.Default(), nil
	}

	median, err := decimal.NewFromString(v.GetString("income_limits.median"))
	if err != nil {
		return nil, fmt.Errorf("%w: income_limits.median: %v", common.ErrInvalidConfig, err)
	}

	area := v.GetString("income_limits.area")
	if area == "" {
		area = incomelimits.DefaultArea
	}
	year := incomelimits.DefaultYear
	if v.IsSet("income_limits.year") {
		year = v.GetInt("income_limits.year")
	}

	return incomelimits.FromMedian(area, year, median)
}
