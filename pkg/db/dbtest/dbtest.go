// Package dbtest opens throwaway sqlite databases with the marketplace schema
// and seeds the rows repository tests need.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

// Open returns an isolated in-memory database migrated for every model.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Provider{},
		&models.Listing{},
		&models.Document{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

// UserOpts tweaks a seeded user.
type UserOpts struct {
	Role     enums.Role
	Inactive bool
}

func MustCreateUser(t testing.TB, db *gorm.DB, opts UserOpts) *models.User {
	t.Helper()
	role := opts.Role
	if role == "" {
		role = enums.RoleProvider
	}
	user := &models.User{
		Email:         fmt.Sprintf("tl_test_%s@example.com", uuid.NewString()),
		FirstName:     "Repo",
		LastName:      "Tester",
		Role:          role,
		IsActive:      !opts.Inactive,
		EmailVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// ProviderOpts tweaks a seeded provider and its user.
type ProviderOpts struct {
	CompanyName  string
	Unverified   bool
	InactiveUser bool
}

func MustCreateProvider(t testing.TB, db *gorm.DB, opts ProviderOpts) *models.Provider {
	t.Helper()
	user := MustCreateUser(t, db, UserOpts{Role: enums.RoleProvider, Inactive: opts.InactiveUser})
	name := opts.CompanyName
	if name == "" {
		name = "Atlas Haulage"
	}
	provider := &models.Provider{
		UserID:      user.ID,
		CompanyName: name,
		IsVerified:  !opts.Unverified,
	}
	if err := db.Create(provider).Error; err != nil {
		t.Fatalf("create provider: %v", err)
	}
	provider.User = *user
	return provider
}

// MustCreateListing seeds an active transport listing; mutate lets callers
// adjust fields before insert.
func MustCreateListing(t testing.TB, db *gorm.DB, providerID uuid.UUID, createdAt time.Time, mutate func(*models.Listing)) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ProviderID:   providerID,
		ServiceType:  enums.ServiceTypeTransport,
		Status:       enums.ListingStatusActive,
		TruckType:    "flatbed",
		LicensePlate: "TL-" + uuid.NewString()[:8],
		CreatedAt:    createdAt.UTC(),
	}
	if mutate != nil {
		mutate(listing)
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return listing
}

func MustCreateDocument(t testing.TB, db *gorm.DB, listingID uuid.UUID, status enums.VerificationStatus) *models.Document {
	t.Helper()
	doc := &models.Document{
		EntityType:         enums.EntityTypeListing,
		EntityID:           listingID,
		DocumentType:       enums.DocumentTypeRegistration,
		VerificationStatus: status,
	}
	doc.SetDescriptor(storage.FileDescriptor{
		ID:           uuid.NewString(),
		OriginalName: "registration.pdf",
		StoredPath:   "documents/" + uuid.NewString() + ".pdf",
		Backend:      enums.StorageBackendLocal,
		SizeBytes:    1024,
		MimeType:     "application/pdf",
	})
	if status.IsTerminal() {
		now := time.Now().UTC()
		doc.VerifiedAt = &now
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}
