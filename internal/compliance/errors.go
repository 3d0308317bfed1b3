package compliance

import (
	"errors"
	"fmt"

	"github.com/Veraticus/safe-harbor/internal/common"
)

// withRow attaches a 1-based row index to a validation error that lacks one.
func withRow(err error, row int) error {
	var verr *common.ValidationError
	if errors.As(err, &verr) && verr.Row == 0 {
		cp := *verr
		cp.Row = row
		return &cp
	}
	return err
}

func withProperty(err error, name string) error {
	if name == "" {
		return err
	}
	return fmt.Errorf("property %q: %w", name, err)
}
