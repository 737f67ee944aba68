package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/dbtest"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, createdAt time.Time) models.Notification {
	t.Helper()
	row := models.Notification{
		UserID:    userID,
		Type:      enums.NotificationTypeAdminAlert,
		Title:     "Document Pending Verification",
		Message:   "pending",
		Priority:  enums.NotificationPriorityLow,
		CreatedAt: createdAt.UTC(),
	}
	if err := repo.Create(context.Background(), &row); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	return row
}

func TestRepositoryListPagesByCursor(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newest := seedNotification(t, repo, userID, base.Add(3*time.Minute))
	middle := seedNotification(t, repo, userID, base.Add(2*time.Minute))
	oldest := seedNotification(t, repo, userID, base.Add(time.Minute))
	seedNotification(t, repo, uuid.New(), base.Add(4*time.Minute))

	page, next, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != newest.ID || page[1].ID != middle.ID {
		t.Fatalf("unexpected first page %+v", page)
	}
	if next == nil {
		t.Fatal("expected next cursor")
	}

	page, next, err = repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page) != 1 || page[0].ID != oldest.ID {
		t.Fatalf("unexpected second page %+v", page)
	}
	if next != nil {
		t.Fatalf("expected no further cursor, got %+v", next)
	}
}

func TestRepositoryMarkReadScopedToUser(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	row := seedNotification(t, repo, userID, time.Now())
	seedNotification(t, repo, userID, time.Now().Add(time.Second))
	now := time.Now().UTC()

	res, err := repo.MarkRead(ctx, uuid.New(), row.ID, now)
	if err != nil {
		t.Fatalf("mark read other user: %v", err)
	}
	if res.Found || res.Updated {
		t.Fatalf("expected other user not to see notification, got %+v", res)
	}

	res, err = repo.MarkRead(ctx, userID, row.ID, now)
	if err != nil || !res.Updated || !res.Found {
		t.Fatalf("expected update, got %+v err=%v", res, err)
	}
	res, err = repo.MarkRead(ctx, userID, row.ID, now)
	if err != nil || res.Updated || !res.Found {
		t.Fatalf("expected already read to be found without update, got %+v err=%v", res, err)
	}

	unread, err := repo.CountUnread(ctx, userID)
	if err != nil || unread != 1 {
		t.Fatalf("expected 1 unread, got %d err=%v", unread, err)
	}
	updated, err := repo.MarkAllRead(ctx, userID, now)
	if err != nil || updated != 1 {
		t.Fatalf("expected 1 row marked, got %d err=%v", updated, err)
	}
}

func TestAdminDirectoryListsActiveAdmins(t *testing.T) {
	db := dbtest.Open(t)
	admin := dbtest.MustCreateUser(t, db, dbtest.UserOpts{Role: enums.RoleAdmin})
	dbtest.MustCreateUser(t, db, dbtest.UserOpts{Role: enums.RoleAdmin, Inactive: true})
	dbtest.MustCreateUser(t, db, dbtest.UserOpts{Role: enums.RoleCustomer})

	ids, err := NewAdminDirectory(db).AdminIDs(context.Background())
	if err != nil {
		t.Fatalf("AdminIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != admin.ID {
		t.Fatalf("expected only the active admin, got %v", ids)
	}
}
