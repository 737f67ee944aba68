package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

const defaultRoot = "uploads/trucks"

// Backend writes uploads under a managed root, namespaced by file kind.
type Backend struct {
	root          string
	publicBaseURL string
	logg          *logger.Logger
}

// New prepares the upload root and its kind directories.
func New(root, publicBaseURL string, logg *logger.Logger) (*Backend, error) {
	if strings.TrimSpace(root) == "" {
		root = defaultRoot
	}
	for _, kind := range []enums.FileKind{enums.FileKindImage, enums.FileKindDocument} {
		if err := os.MkdirAll(filepath.Join(root, kind.Dir()), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Backend{
		root:          root,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		logg:          logg,
	}, nil
}

func (b *Backend) Kind() enums.StorageBackend {
	return enums.StorageBackendLocal
}

// Root returns the managed upload directory.
func (b *Backend) Root() string {
	return b.root
}

func (b *Backend) Store(ctx context.Context, file storage.File, kind enums.FileKind) (storage.FileDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return storage.FileDescriptor{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "store cancelled")
	}
	if file.Content == nil {
		return storage.FileDescriptor{}, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}

	id := uuid.New()
	rel := path.Join(kind.Dir(), id.String()+strings.ToLower(filepath.Ext(file.OriginalName)))
	full := filepath.Join(b.root, filepath.FromSlash(rel))

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return storage.FileDescriptor{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create file")
	}
	written, copyErr := io.Copy(f, file.Content)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(full)
		return storage.FileDescriptor{}, pkgerrors.Wrap(pkgerrors.CodeStorage, errors.Join(copyErr, closeErr), "write file")
	}

	return storage.FileDescriptor{
		ID:           id.String(),
		OriginalName: file.OriginalName,
		StoredPath:   rel,
		Backend:      enums.StorageBackendLocal,
		SizeBytes:    written,
		MimeType:     file.MimeType,
	}, nil
}

func (b *Backend) Delete(ctx context.Context, descriptor storage.FileDescriptor) error {
	full, err := b.pathFor(descriptor)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if b.logg != nil {
				b.logg.Debug(b.logg.WithField(ctx, "stored_path", descriptor.StoredPath), "local file already absent")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete file")
	}
	return nil
}

func (b *Backend) ResolveURL(descriptor storage.FileDescriptor) (string, error) {
	if _, err := b.pathFor(descriptor); err != nil {
		return "", err
	}
	return b.publicBaseURL + "/" + descriptor.StoredPath, nil
}

// pathFor maps a descriptor onto the filesystem, refusing anything outside the root.
func (b *Backend) pathFor(descriptor storage.FileDescriptor) (string, error) {
	if descriptor.Backend != enums.StorageBackendLocal {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "descriptor is not stored locally")
	}
	rel := path.Clean(strings.TrimSpace(descriptor.StoredPath))
	if rel == "." || rel == "" || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "stored path escapes the upload root")
	}
	return filepath.Join(b.root, filepath.FromSlash(rel)), nil
}
