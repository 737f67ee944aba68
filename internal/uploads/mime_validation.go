package uploads

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

type mimeGroup string

const (
	mimeGroupImages    mimeGroup = "images"
	mimeGroupPDFs      mimeGroup = "pdfs"
	mimeGroupWordFiles mimeGroup = "word"
)

var mimeGroupNames = map[mimeGroup]string{
	mimeGroupImages:    "images",
	mimeGroupPDFs:      "PDFs",
	mimeGroupWordFiles: "Word documents",
}

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	mimeGroupPDFs:   {"application/pdf"},
	mimeGroupWordFiles: {
		"application/msword",
		"application/x-ole-storage",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/zip",
	},
}

var mimeGroupExtensions = map[mimeGroup][]string{
	mimeGroupImages:    {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	mimeGroupPDFs:      {".pdf"},
	mimeGroupWordFiles: {".doc", ".docx"},
}

// Documents accept scans as jpeg/png but not gif or webp.
var documentImageTypes = []string{"image/jpeg", "image/png"}
var documentImageExtensions = []string{".jpg", ".jpeg", ".png"}

const sniffBytes = 3072

type acceptRule struct {
	mimeTypes   []string
	extensions  []string
	description string
}

var acceptRules = map[enums.FileKind]acceptRule{
	enums.FileKindImage: {
		mimeTypes:   mimeGroupTypes[mimeGroupImages],
		extensions:  mimeGroupExtensions[mimeGroupImages],
		description: "jpeg, png, gif or webp " + mimeGroupNames[mimeGroupImages],
	},
	enums.FileKindDocument: {
		mimeTypes:   concat(mimeGroupTypes[mimeGroupPDFs], mimeGroupTypes[mimeGroupWordFiles], documentImageTypes),
		extensions:  concat(mimeGroupExtensions[mimeGroupPDFs], mimeGroupExtensions[mimeGroupWordFiles], documentImageExtensions),
		description: fmt.Sprintf("%s, %s, or jpeg/png scans", mimeGroupNames[mimeGroupPDFs], mimeGroupNames[mimeGroupWordFiles]),
	},
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// sniff detects the content type from the leading bytes and checks it, together
// with the file extension, against the allow-list for kind.
func sniff(kind enums.FileKind, name string, r io.Reader) (string, error) {
	rule, ok := acceptRules[kind]
	if !ok {
		return "", fmt.Errorf("unsupported file kind %q", kind)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !contains(rule.extensions, ext) {
		return "", fmt.Errorf("extension %q not allowed; expected %s", ext, rule.description)
	}

	detected, err := mimetype.DetectReader(io.LimitReader(r, sniffBytes))
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	for _, allowed := range rule.mimeTypes {
		if detected.Is(allowed) {
			if kind == enums.FileKindDocument && isWordContainer(allowed) && !isWordExtension(ext) {
				continue
			}
			return baseMime(detected.String()), nil
		}
	}
	return "", fmt.Errorf("content type %s not allowed; expected %s", baseMime(detected.String()), rule.description)
}

// zip and ole containers only pass when the name says Word.
func isWordContainer(mimeType string) bool {
	return mimeType == "application/zip" || mimeType == "application/x-ole-storage"
}

func isWordExtension(ext string) bool {
	return ext == ".doc" || ext == ".docx"
}

func baseMime(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
