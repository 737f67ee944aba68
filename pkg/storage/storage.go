package storage

import (
	"context"
	"io"
	"strings"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

// FileDescriptor is the backend-agnostic metadata for a stored file. Both
// backends emit the same shape so search, serving and deletion never branch
// on where the bytes live.
type FileDescriptor struct {
	ID           string               `json:"id"`
	OriginalName string               `json:"original_name"`
	StoredPath   string               `json:"stored_path"`
	Backend      enums.StorageBackend `json:"backend"`
	BackendID    string               `json:"backend_id"`
	SizeBytes    int64                `json:"size_bytes"`
	MimeType     string               `json:"mime_type"`
	// URL is filled at read time through the owning backend and never stored.
	URL          string               `json:"url,omitempty"`
}

// Validate enforces the per-backend shape invariants.
func (d FileDescriptor) Validate() error {
	if strings.TrimSpace(d.StoredPath) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stored path is required")
	}
	switch d.Backend {
	case enums.StorageBackendCloud:
		if strings.TrimSpace(d.BackendID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "cloud descriptor requires a backend id")
		}
		if !strings.HasPrefix(d.StoredPath, "https://") && !strings.HasPrefix(d.StoredPath, "http://") {
			return pkgerrors.New(pkgerrors.CodeValidation, "cloud descriptor requires a url")
		}
	case enums.StorageBackendLocal:
		if strings.HasPrefix(d.StoredPath, "/") || strings.Contains(d.StoredPath, "..") {
			return pkgerrors.New(pkgerrors.CodeValidation, "local descriptor must be relative to the upload root")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown storage backend")
	}
	return nil
}

// File is a single upload handed to a backend.
type File struct {
	Field        string
	OriginalName string
	MimeType     string
	Size         int64
	Content      io.Reader
}

// Backend stores, deletes and addresses files. Delete must treat an already
// absent file as success.
type Backend interface {
	Kind() enums.StorageBackend
	Store(ctx context.Context, file File, kind enums.FileKind) (FileDescriptor, error)
	Delete(ctx context.Context, descriptor FileDescriptor) error
	ResolveURL(descriptor FileDescriptor) (string, error)
}

// Resolver turns a descriptor into a fetchable URL.
type Resolver interface {
	ResolveURL(descriptor FileDescriptor) (string, error)
}

// WithURLs returns copies of descriptors with URL set through r. A descriptor
// that cannot be resolved keeps an empty URL.
func WithURLs(r Resolver, descriptors []FileDescriptor) []FileDescriptor {
	out := make([]FileDescriptor, len(descriptors))
	for i, d := range descriptors {
		if url, err := r.ResolveURL(d); err == nil {
			d.URL = url
		}
		out[i] = d
	}
	return out
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}
