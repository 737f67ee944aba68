package enums

import "fmt"

// StorageBackend identifies where a file's bytes live.
type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendCloud StorageBackend = "cloud"
)

// String implements fmt.Stringer.
func (s StorageBackend) String() string {
	return string(s)
}

// IsValid reports whether the backend is known.
func (s StorageBackend) IsValid() bool {
	return s == StorageBackendLocal || s == StorageBackendCloud
}

// ParseStorageBackend converts raw input into StorageBackend.
func ParseStorageBackend(value string) (StorageBackend, error) {
	switch StorageBackend(value) {
	case StorageBackendLocal, StorageBackendCloud:
		return StorageBackend(value), nil
	}
	return "", fmt.Errorf("invalid storage backend %q", value)
}

// FileKind is the artifact kind an upload is stored under.
type FileKind string

const (
	FileKindImage    FileKind = "image"
	FileKindDocument FileKind = "document"
)

// String implements fmt.Stringer.
func (f FileKind) String() string {
	return string(f)
}

// IsValid reports whether the kind is known.
func (f FileKind) IsValid() bool {
	return f == FileKindImage || f == FileKindDocument
}

// Dir returns the namespaced directory used for the kind.
func (f FileKind) Dir() string {
	switch f {
	case FileKindImage:
		return "images"
	case FileKindDocument:
		return "documents"
	}
	return "other"
}
