package cache

import (
	"fmt"

	"paircode/internal/model"
)

// Live state of a room is namespaced under room:<id>:live:*
func liveKey(roomID, name string) string {
	return fmt.Sprintf("room:%s:live:%s", roomID, name)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %v", model.ErrStoreUnavailable, op, err)
}
