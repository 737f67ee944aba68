package uploads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/metrics"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

type backendSet interface {
	ForStore() storage.Backend
	ForDescriptor(descriptor storage.FileDescriptor) (storage.Backend, error)
	ResolveURL(descriptor storage.FileDescriptor) (string, error)
}

// Service validates, stores and cleans up multi-field uploads.
type Service interface {
	Upload(ctx context.Context, req Request, opts Options) (*Result, error)
	DeleteFile(ctx context.Context, descriptor storage.FileDescriptor) error
	Discard(ctx context.Context, descriptors []storage.FileDescriptor) error
	ResolveURL(descriptor storage.FileDescriptor) (string, error)
}

type service struct {
	backends backendSet
	limits   Limits
	logg     *logger.Logger
	metrics  *metrics.UploadMetrics
}

func NewService(backends backendSet, limits Limits, logg *logger.Logger, m *metrics.UploadMetrics) (Service, error) {
	if backends == nil {
		return nil, fmt.Errorf("storage backends required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if limits.StoreConcurrency <= 0 {
		limits.StoreConcurrency = 1
	}
	if limits.MaxPerSlot <= 0 {
		limits.MaxPerSlot = 1
	}
	return &service{backends: backends, limits: limits, logg: logg, metrics: m}, nil
}

// Violation is one request-level limit breach.
type Violation struct {
	Field        string `json:"field"`
	OriginalName string `json:"original_name,omitempty"`
	Reason       string `json:"reason"`
}

type accepted struct {
	index    int
	file     IncomingFile
	slot     slot
	mimeType string
}

func (s *service) Upload(ctx context.Context, req Request, opts Options) (*Result, error) {
	if len(req.Files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}

	slots := make([]slot, len(req.Files))
	for i, f := range req.Files {
		slots[i] = classify(f)
	}

	if violations := s.checkLimits(req.Files, slots); len(violations) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload exceeds limits").WithDetails(violations)
	}

	result := &Result{
		Images:    []storage.FileDescriptor{},
		Documents: []TypedFileDescriptor{},
		Rejected:  []Rejection{},
	}

	toStore := make([]accepted, 0, len(req.Files))
	for i, f := range req.Files {
		mimeType, err := s.inspect(f, slots[i])
		if err != nil {
			s.metrics.IncRejected(slots[i].kind.String())
			result.Rejected = append(result.Rejected, Rejection{
				Field:        f.Field,
				OriginalName: f.OriginalName,
				Reason:       err.Error(),
			})
			continue
		}
		toStore = append(toStore, accepted{index: i, file: f, slot: slots[i], mimeType: mimeType})
	}

	if len(result.Rejected) > 0 && opts.Strict {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one or more files were rejected").WithDetails(result.Rejected)
	}
	if len(toStore) == 0 {
		return result, nil
	}

	stored, err := s.storeAll(ctx, toStore)
	if err != nil {
		return nil, err
	}

	for i, item := range toStore {
		fd := stored[i]
		if item.slot.kind == enums.FileKindImage {
			result.Images = append(result.Images, fd)
			continue
		}
		result.Documents = append(result.Documents, TypedFileDescriptor{
			FileDescriptor: fd,
			Field:          item.file.Field,
			DocumentType:   item.slot.documentType,
		})
	}
	return result, nil
}

// checkLimits evaluates every request-level ceiling and reports all breaches at once.
func (s *service) checkLimits(files []IncomingFile, slots []slot) []Violation {
	var violations []Violation

	if len(files) > s.limits.MaxFiles {
		violations = append(violations, Violation{
			Reason: fmt.Sprintf("too many files: %d received, at most %d allowed", len(files), s.limits.MaxFiles),
		})
	}

	counts := map[string][]int{}
	order := []string{}
	for i, sl := range slots {
		if _, seen := counts[sl.bucket]; !seen {
			order = append(order, sl.bucket)
		}
		counts[sl.bucket] = append(counts[sl.bucket], i)
	}
	for _, bucket := range order {
		idx := counts[bucket]
		limit := s.bucketLimit(bucket)
		if limit <= 0 || len(idx) <= limit {
			continue
		}
		for _, i := range idx[limit:] {
			violations = append(violations, Violation{
				Field:        files[i].Field,
				OriginalName: files[i].OriginalName,
				Reason:       fmt.Sprintf("field %s accepts at most %d file(s)", bucket, limit),
			})
		}
	}

	for i, f := range files {
		ceiling := s.limits.MaxDocumentBytes
		if slots[i].kind == enums.FileKindImage {
			ceiling = s.limits.MaxImageBytes
		}
		if ceiling > 0 && f.Size > ceiling {
			violations = append(violations, Violation{
				Field:        f.Field,
				OriginalName: f.OriginalName,
				Reason:       fmt.Sprintf("file is %d bytes, %s limit is %d bytes", f.Size, slots[i].kind, ceiling),
			})
		}
	}
	return violations
}

func (s *service) bucketLimit(bucket string) int {
	switch bucket {
	case FieldImages:
		return s.limits.MaxImages
	case FieldAdditionalDocs:
		return s.limits.MaxAdditionalDocs
	case FieldDocuments:
		return 0
	}
	return s.limits.MaxPerSlot
}

func (s *service) inspect(f IncomingFile, sl slot) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("file content missing")
	}
	if f.Size == 0 {
		return "", fmt.Errorf("file is empty")
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()
	return sniff(sl.kind, f.OriginalName, rc)
}

// storeAll writes the accepted files concurrently. If any write fails, every
// file already written for this request is discarded.
func (s *service) storeAll(ctx context.Context, items []accepted) ([]storage.FileDescriptor, error) {
	backend := s.backends.ForStore()
	results := make([]storage.FileDescriptor, len(items))
	written := make([]bool, len(items))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.StoreConcurrency)
	for i, item := range items {
		g.Go(func() error {
			fd, err := s.storeOne(gctx, backend, item)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = fd
			written[i] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []storage.FileDescriptor
		for i, ok := range written {
			if ok {
				stored = append(stored, results[i])
			}
		}
		s.metrics.IncRollback()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"stored_files": len(stored),
			"backend":      backend.Kind().String(),
		})
		s.logg.Warn(logCtx, "upload failed, discarding stored files")
		_ = s.Discard(context.WithoutCancel(ctx), stored)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "store upload")
	}
	return results, nil
}

func (s *service) storeOne(ctx context.Context, backend storage.Backend, item accepted) (storage.FileDescriptor, error) {
	rc, err := item.file.Open()
	if err != nil {
		return storage.FileDescriptor{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "open file")
	}
	defer rc.Close()

	started := time.Now()
	fd, err := backend.Store(ctx, storage.File{
		Field:        normalizeField(item.file.Field),
		OriginalName: item.file.OriginalName,
		MimeType:     item.mimeType,
		Size:         item.file.Size,
		Content:      rc,
	}, item.slot.kind)
	s.metrics.ObserveStore(backend.Kind().String(), time.Since(started))
	if err != nil {
		return storage.FileDescriptor{}, err
	}
	if err := fd.Validate(); err != nil {
		// keep the file deletable even though its shape is wrong
		_ = backend.Delete(context.WithoutCancel(ctx), fd)
		return storage.FileDescriptor{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "backend returned an invalid descriptor")
	}
	s.metrics.IncStored(item.slot.kind.String(), fd.Backend.String())
	if url, err := s.backends.ResolveURL(fd); err == nil {
		fd.URL = url
	}
	return fd, nil
}

// ResolveURL addresses a stored file through the backend that owns it.
func (s *service) ResolveURL(descriptor storage.FileDescriptor) (string, error) {
	return s.backends.ResolveURL(descriptor)
}

// DeleteFile removes a stored file through the backend that owns it. A file
// that is already gone counts as deleted.
func (s *service) DeleteFile(ctx context.Context, descriptor storage.FileDescriptor) error {
	backend, err := s.backends.ForDescriptor(descriptor)
	if err != nil {
		return err
	}
	return backend.Delete(ctx, descriptor)
}

// Discard deletes every descriptor, logging and continuing past failures.
// The combined error is returned for callers that care.
func (s *service) Discard(ctx context.Context, descriptors []storage.FileDescriptor) error {
	var errs error
	for _, fd := range descriptors {
		if err := s.DeleteFile(ctx, fd); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"stored_path": fd.StoredPath,
				"backend":     fd.Backend.String(),
			})
			s.logg.Error(logCtx, "failed to discard stored file", err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
