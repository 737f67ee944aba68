package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

// FileDescriptors persists an ordered list of descriptors as a JSON array.
type FileDescriptors []storage.FileDescriptor

func (f *FileDescriptors) Scan(src any) error {
	if src == nil {
		*f = FileDescriptors{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("FileDescriptors: unsupported Scan type %T", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*f = FileDescriptors{}
		return nil
	}

	var out []storage.FileDescriptor
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("FileDescriptors: decode: %w", err)
	}
	*f = FileDescriptors(out)
	return nil
}

// Value emits a string so the simple protocol sends it as text rather than bytea.
// Resolved URLs are dropped; they depend on the serving configuration.
func (f FileDescriptors) Value() (driver.Value, error) {
	if len(f) == 0 {
		return "[]", nil
	}
	stored := make([]storage.FileDescriptor, len(f))
	for i, d := range f {
		d.URL = ""
		stored[i] = d
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("FileDescriptors: encode: %w", err)
	}
	return string(raw), nil
}
