package incomelimits

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/safe-harbor/internal/common"
)

// tableFile is the on-disk YAML shape of a table. Either rows or
// median_four_person must be given.
type tableFile struct {
	MedianFourPerson *decimal.Decimal `yaml:"median_four_person"`
	Area             string           `yaml:"area"`
	Rows             []Limits         `yaml:"rows"`
	Year             int              `yaml:"year"`
}

// Load reads a YAML table document.
func Load(r io.Reader) (*Table, error) {
	var doc tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", common.ErrInvalidTable)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidTable, err)
	}

	if doc.Area == "" {
		return nil, fmt.Errorf("%w: area is required", common.ErrInvalidTable)
	}

	switch {
	case len(doc.Rows) > 0 && doc.MedianFourPerson != nil:
		return nil, fmt.Errorf("%w: use either rows or median_four_person, not both", common.ErrInvalidTable)
	case len(doc.Rows) > 0:
		return NewTable(doc.Area, doc.Year, doc.Rows)
	case doc.MedianFourPerson != nil:
		return FromMedian(doc.Area, doc.Year, *doc.MedianFourPerson)
	default:
		return nil, fmt.Errorf("%w: no rows or median_four_person given", common.ErrInvalidTable)
	}
}

// LoadFile reads a YAML table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open income limit table: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
