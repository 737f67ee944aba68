package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

const (
	defaultMultipartMemory = 32 << 20
	documentTypesField     = "document_types"
)

// UploadLimits bounds multipart parsing. MaxBody caps the raw request body so
// oversized uploads stop streaming before they are spooled; zero disables it.
type UploadLimits struct {
	MaxMemory int64
	MaxBody   int64
}

func tooLargeError(err error, limit int64) error {
	return pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "upload too large").
		WithDetails(map[string]any{"max_bytes": limit})
}

// parseUploadRequest turns a multipart form into a pipeline request. Files
// under "documents" pick up their type from the "document_types" values in
// the same order; every other field name is the type itself.
func parseUploadRequest(w http.ResponseWriter, r *http.Request, limits UploadLimits) (uploads.Request, func(), error) {
	maxMemory := limits.MaxMemory
	if maxMemory <= 0 {
		maxMemory = defaultMultipartMemory
	}
	if limits.MaxBody > 0 {
		if r.ContentLength > limits.MaxBody {
			return uploads.Request{}, func() {}, tooLargeError(nil, limits.MaxBody)
		}
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBody)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return uploads.Request{}, func() {}, tooLargeError(err, limits.MaxBody)
		}
		return uploads.Request{}, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	form := r.MultipartForm
	cleanup := func() {
		if form != nil {
			_ = form.RemoveAll()
		}
	}
	if form == nil || len(form.File) == 0 {
		return uploads.Request{}, cleanup, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	docTypes := form.Value[documentTypesField]
	if len(docTypes) == 0 {
		docTypes = form.Value[documentTypesField+"[]"]
	}

	var req uploads.Request
	for _, field := range fields {
		for i, header := range form.File[field] {
			req.Files = append(req.Files, incomingFile(field, documentTypeAt(field, docTypes, i), header))
		}
	}
	return req, cleanup, nil
}

func documentTypeAt(field string, docTypes []string, i int) string {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(field)), "[]") {
	case uploads.FieldDocuments, "document":
		if i < len(docTypes) {
			return docTypes[i]
		}
	}
	return ""
}

func incomingFile(field, docType string, header *multipart.FileHeader) uploads.IncomingFile {
	return uploads.IncomingFile{
		Field:        field,
		DocumentType: docType,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
