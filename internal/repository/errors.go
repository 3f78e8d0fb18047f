package repository

import (
	"fmt"

	"paircode/internal/model"
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: mongo %s: %v", model.ErrStoreUnavailable, op, err)
}
