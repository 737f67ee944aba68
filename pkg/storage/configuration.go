package storage

import (
	"fmt"
	"strings"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/config"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

// CloudCredentials are the three values whose joint presence enables cloud storage.
type CloudCredentials struct {
	ProjectID       string
	Bucket          string
	CredentialsJSON string
}

// Configuration is evaluated once at startup and injected wherever a backend
// must be chosen.
type Configuration struct {
	UploadRoot    string
	PublicBaseURL string
	Cloud         CloudCredentials
}

// ConfigurationFrom derives the storage configuration from the loaded app config.
func ConfigurationFrom(cfg *config.Config) Configuration {
	if cfg == nil {
		return Configuration{}
	}
	return Configuration{
		UploadRoot:    cfg.Storage.UploadRoot,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Cloud: CloudCredentials{
			ProjectID:       cfg.GCP.ProjectID,
			Bucket:          cfg.GCS.BucketName,
			CredentialsJSON: cfg.GCP.CredentialsJSON,
		},
	}
}

// CloudEnabled is the single capability check selecting the cloud backend.
func (c Configuration) CloudEnabled() bool {
	return strings.TrimSpace(c.Cloud.ProjectID) != "" &&
		strings.TrimSpace(c.Cloud.Bucket) != "" &&
		strings.TrimSpace(c.Cloud.CredentialsJSON) != ""
}

// PreferredBackend reports which backend new uploads go to.
func (c Configuration) PreferredBackend() enums.StorageBackend {
	if c.CloudEnabled() {
		return enums.StorageBackendCloud
	}
	return enums.StorageBackendLocal
}

// Set holds the constructed backends and routes calls between them.
type Set struct {
	cfg   Configuration
	local Backend
	cloud Backend
}

// NewSet wires the backends for cfg. The cloud backend may be nil when cloud
// storage is not configured.
func NewSet(cfg Configuration, local, cloud Backend) (*Set, error) {
	if local == nil {
		return nil, fmt.Errorf("local storage backend is required")
	}
	if cfg.CloudEnabled() && cloud == nil {
		return nil, fmt.Errorf("cloud storage configured but no cloud backend supplied")
	}
	return &Set{cfg: cfg, local: local, cloud: cloud}, nil
}

// ForStore returns the backend new files are written to.
func (s *Set) ForStore() Backend {
	if s.cfg.CloudEnabled() && s.cloud != nil {
		return s.cloud
	}
	return s.local
}

// ForDescriptor returns the backend that owns an existing descriptor, so files
// written before a configuration change stay deletable.
func (s *Set) ForDescriptor(descriptor FileDescriptor) (Backend, error) {
	switch descriptor.Backend {
	case enums.StorageBackendLocal:
		return s.local, nil
	case enums.StorageBackendCloud:
		if s.cloud == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStorage, "cloud storage is not configured")
		}
		return s.cloud, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown storage backend %q", descriptor.Backend))
}

// ResolveURL resolves a descriptor through its owning backend.
func (s *Set) ResolveURL(descriptor FileDescriptor) (string, error) {
	backend, err := s.ForDescriptor(descriptor)
	if err != nil {
		return "", err
	}
	return backend.ResolveURL(descriptor)
}
