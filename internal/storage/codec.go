package storage

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/safe-harbor/internal/model"
)

func encodeResult(result *model.ComplianceResult) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return data, nil
}

func decodeResult(data []byte) (*model.ComplianceResult, error) {
	var result model.ComplianceResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// prepareSnapshot assigns an ID and timestamp when missing.
func prepareSnapshot(snap *model.ComplianceSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	} else if _, err := uuid.Parse(snap.ID); err != nil {
		return fmt.Errorf("%w: id %q is not a UUID", ErrInvalidSnapshot, snap.ID)
	}
	if snap.AnalyzedAt.IsZero() {
		snap.AnalyzedAt = nowUTC()
	}
	return nil
}
