package savedhomes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:savedhomes_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.House{}, &models.SavedHome{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	houseSvc, err := houses.NewService(houses.NewRepository(db))
	if err != nil {
		t.Fatalf("houses.NewService: %v", err)
	}
	svc, err := NewService(NewRepository(db), houseSvc)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedHouse(t *testing.T, db *gorm.DB) *models.House {
	t.Helper()
	house := &models.House{
		ID:       uuid.New(),
		Name:     "Bonduma Duplex",
		RoomType: enums.RoomTypeDouble,
		Price:    decimal.NewFromInt(60000),
	}
	if err := db.Create(house).Error; err != nil {
		t.Fatalf("seed house: %v", err)
	}
	return house
}

func TestSaveIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	house := seedHouse(t, db)
	userID := uuid.New()

	first, err := svc.Save(context.Background(), userID, house.ID)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second, err := svc.Save(context.Background(), userID, house.ID)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same bookmark, got %s and %s", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.SavedHome{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count bookmarks: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 bookmark, got %d", count)
	}
}

func TestSaveUnknownHouse(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Save(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUnsaveRemovesBookmark(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	house := seedHouse(t, db)
	userID := uuid.New()

	if _, err := svc.Save(context.Background(), userID, house.ID); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Unsave(context.Background(), userID, house.ID); err != nil {
		t.Fatalf("Unsave: %v", err)
	}

	err := svc.Unsave(context.Background(), userID, house.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found on repeat unsave, got %v", err)
	}
}

func TestListForUserOnlyOwnBookmarks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	house := seedHouse(t, db)
	other := seedHouse(t, db)
	userID := uuid.New()

	if _, err := svc.Save(context.Background(), userID, house.ID); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := svc.Save(context.Background(), uuid.New(), other.ID); err != nil {
		t.Fatalf("Save other user: %v", err)
	}

	rows, err := svc.ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 1 || rows[0].HouseID != house.ID {
		t.Fatalf("unexpected bookmarks: %+v", rows)
	}
}
