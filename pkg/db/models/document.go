package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

// Document is a supporting file attached to an entity and awaiting, or past,
// admin verification.
type Document struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EntityType         enums.EntityType         `gorm:"column:entity_type;not null;index:idx_documents_entity" json:"entity_type"`
	EntityID           uuid.UUID                `gorm:"column:entity_id;type:uuid;not null;index:idx_documents_entity" json:"entity_id"`
	DocumentType       enums.DocumentType       `gorm:"column:document_type;type:document_type;not null" json:"document_type"`
	FileID             string                   `gorm:"column:file_id;not null" json:"file_id"`
	OriginalName       string                   `gorm:"column:original_name;not null" json:"original_name"`
	StoredPath         string                   `gorm:"column:stored_path;not null" json:"stored_path"`
	StorageBackend     enums.StorageBackend     `gorm:"column:storage_backend;type:storage_backend;not null" json:"storage_backend"`
	BackendID          *string                  `gorm:"column:backend_id" json:"backend_id,omitempty"`
	SizeBytes          int64                    `gorm:"column:size_bytes;not null" json:"size_bytes"`
	MimeType           string                   `gorm:"column:mime_type;not null" json:"mime_type"`
	VerificationStatus enums.VerificationStatus `gorm:"column:verification_status;type:verification_status;not null;default:pending;index" json:"verification_status"`
	VerificationNotes  *string                  `gorm:"column:verification_notes" json:"verification_notes,omitempty"`
	VerifiedBy         *uuid.UUID               `gorm:"column:verified_by;type:uuid" json:"verified_by,omitempty"`
	VerifiedAt         *time.Time               `gorm:"column:verified_at" json:"verified_at,omitempty"`
	UploadedAt         time.Time                `gorm:"column:uploaded_at;autoCreateTime" json:"uploaded_at"`
	URL                string                   `gorm:"-" json:"url,omitempty"`
}

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.VerificationStatus == "" {
		d.VerificationStatus = enums.VerificationStatusPending
	}
	return nil
}

// Descriptor rebuilds the storage descriptor from the inlined file columns.
func (d Document) Descriptor() storage.FileDescriptor {
	fd := storage.FileDescriptor{
		ID:           d.FileID,
		OriginalName: d.OriginalName,
		StoredPath:   d.StoredPath,
		Backend:      d.StorageBackend,
		SizeBytes:    d.SizeBytes,
		MimeType:     d.MimeType,
	}
	if d.BackendID != nil {
		fd.BackendID = *d.BackendID
	}
	return fd
}

// SetDescriptor copies a storage descriptor into the inlined file columns.
func (d *Document) SetDescriptor(fd storage.FileDescriptor) {
	d.FileID = fd.ID
	d.OriginalName = fd.OriginalName
	d.StoredPath = fd.StoredPath
	d.StorageBackend = fd.Backend
	d.SizeBytes = fd.SizeBytes
	d.MimeType = fd.MimeType
	d.BackendID = nil
	if fd.BackendID != "" {
		id := fd.BackendID
		d.BackendID = &id
	}
}
