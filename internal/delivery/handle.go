package delivery

import (
	"encoding/json"
	"os"

	"beacon/internal/types"
)

// LoadHandle reads the wrapper handle file. A missing file means no
// network transport is available and is not an error.
func LoadHandle(path string) (*types.WrapperHandle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var handle types.WrapperHandle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, err
	}
	if handle.Port <= 0 || handle.PID <= 0 {
		return nil, nil
	}
	return &handle, nil
}

// WriteHandle persists a wrapper handle. The wrapper process calls this on
// startup; the daemon only reads and, when the pid is dead, deletes it.
func WriteHandle(path string, handle types.WrapperHandle) error {
	data, err := json.Marshal(handle)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
