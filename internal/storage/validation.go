package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/safe-harbor/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSnapshot(snap *model.ComplianceSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if strings.TrimSpace(snap.PropertyName) == "" {
		return fmt.Errorf("%w: missing property name", ErrInvalidSnapshot)
	}
	if snap.Result == nil {
		return fmt.Errorf("%w: missing result", ErrInvalidSnapshot)
	}
	if snap.Denominator < 0 {
		return fmt.Errorf("%w: negative denominator", ErrInvalidSnapshot)
	}
	switch snap.Status {
	case model.StatusCompliant, model.StatusNonCompliant:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSnapshot, snap.Status)
	}
	return nil
}
