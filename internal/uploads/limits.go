package uploads

import (
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/config"
)

const megabyte = 1024 * 1024

// Limits are the request-level ceilings checked before anything is stored.
type Limits struct {
	MaxImageBytes     int64
	MaxDocumentBytes  int64
	MaxFiles          int
	MaxImages         int
	MaxAdditionalDocs int
	// MaxPerSlot bounds files under a single named document field.
	MaxPerSlot       int
	StoreConcurrency int
}

func DefaultLimits() Limits {
	return Limits{
		MaxImageBytes:     5 * megabyte,
		MaxDocumentBytes:  10 * megabyte,
		MaxFiles:          20,
		MaxImages:         10,
		MaxAdditionalDocs: 5,
		MaxPerSlot:        1,
		StoreConcurrency:  4,
	}
}

// LimitsFrom maps the upload config onto pipeline limits.
func LimitsFrom(cfg config.UploadsConfig) Limits {
	limits := DefaultLimits()
	if cfg.MaxImageMB > 0 {
		limits.MaxImageBytes = int64(cfg.MaxImageMB) * megabyte
	}
	if cfg.MaxDocumentMB > 0 {
		limits.MaxDocumentBytes = int64(cfg.MaxDocumentMB) * megabyte
	}
	if cfg.MaxFilesPerRequest > 0 {
		limits.MaxFiles = cfg.MaxFilesPerRequest
	}
	if cfg.MaxImages > 0 {
		limits.MaxImages = cfg.MaxImages
	}
	if cfg.MaxAdditionalDocs > 0 {
		limits.MaxAdditionalDocs = cfg.MaxAdditionalDocs
	}
	if cfg.StoreConcurrency > 0 {
		limits.StoreConcurrency = cfg.StoreConcurrency
	}
	return limits
}

// multipartOverhead covers part headers and form values around the files.
const multipartOverhead = 1 * megabyte

// MaxRequestBytes is the largest body a request within these limits can need:
// every file slot at the larger per-file ceiling plus form overhead.
func (l Limits) MaxRequestBytes() int64 {
	perFile := l.MaxImageBytes
	if l.MaxDocumentBytes > perFile {
		perFile = l.MaxDocumentBytes
	}
	return int64(l.MaxFiles)*perFile + multipartOverhead
}
