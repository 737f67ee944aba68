package uploads

import (
	"io"
	"strings"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

const (
	FieldImages         = "images"
	FieldDocuments      = "documents"
	FieldAdditionalDocs = "additional_docs"
)

// IncomingFile is one part of a multi-field upload. Open may be called more
// than once: once to sniff the content type and once to store.
type IncomingFile struct {
	Field        string
	DocumentType string
	OriginalName string
	ContentType  string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// Request is a batch of files submitted together.
type Request struct {
	Files []IncomingFile
}

// Options tunes how per-file rejections are handled.
type Options struct {
	// Strict fails the whole request when any file is rejected.
	Strict bool
}

// TypedFileDescriptor is a stored document with its canonical category.
type TypedFileDescriptor struct {
	storage.FileDescriptor
	Field        string             `json:"field"`
	DocumentType enums.DocumentType `json:"document_type"`
}

// Rejection names a file the pipeline refused and why.
type Rejection struct {
	Field        string `json:"field"`
	OriginalName string `json:"original_name"`
	Reason       string `json:"reason"`
}

type Result struct {
	Images    []storage.FileDescriptor `json:"images"`
	Documents []TypedFileDescriptor    `json:"documents"`
	Rejected  []Rejection              `json:"rejected"`
}

// Descriptors returns every stored file, images first.
func (r *Result) Descriptors() []storage.FileDescriptor {
	if r == nil {
		return nil
	}
	out := make([]storage.FileDescriptor, 0, len(r.Images)+len(r.Documents))
	out = append(out, r.Images...)
	for _, doc := range r.Documents {
		out = append(out, doc.FileDescriptor)
	}
	return out
}

// slot is where a file lands: its kind, its document category and the bucket
// its count is charged to.
type slot struct {
	kind         enums.FileKind
	documentType enums.DocumentType
	bucket       string
}

func normalizeField(field string) string {
	f := strings.ToLower(strings.TrimSpace(field))
	return strings.TrimSuffix(f, "[]")
}

// IsImageField reports whether a form field carries images.
func IsImageField(field string) bool {
	switch normalizeField(field) {
	case FieldImages, "image":
		return true
	}
	return false
}

func classify(file IncomingFile) slot {
	field := normalizeField(file.Field)
	switch field {
	case FieldImages, "image":
		return slot{kind: enums.FileKindImage, bucket: FieldImages}
	case FieldDocuments, "document":
		return slot{
			kind:         enums.FileKindDocument,
			documentType: enums.ClassifyDocumentType(file.DocumentType),
			bucket:       FieldDocuments,
		}
	case FieldAdditionalDocs, "":
		return slot{kind: enums.FileKindDocument, documentType: enums.DocumentTypeAdditionalDocs, bucket: FieldAdditionalDocs}
	}
	return slot{kind: enums.FileKindDocument, documentType: enums.ClassifyDocumentType(field), bucket: field}
}
