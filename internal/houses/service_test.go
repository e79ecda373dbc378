package houses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

type fakeRepo struct {
	Repository
	createFn      func(ctx context.Context, house *models.House) error
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*models.House, error)
	updateFn      func(ctx context.Context, house *models.House) error
	listFn        func(ctx context.Context, filter ListFilter) ([]models.House, error)
	setReservedFn func(ctx context.Context, id uuid.UUID, reserved bool) error
}

func (f *fakeRepo) Create(ctx context.Context, house *models.House) error {
	return f.createFn(ctx, house)
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.House, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeRepo) Update(ctx context.Context, house *models.House) error {
	return f.updateFn(ctx, house)
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]models.House, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeRepo) SetReserved(ctx context.Context, id uuid.UUID, reserved bool) error {
	return f.setReservedFn(ctx, id, reserved)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, err := NewService(&fakeRepo{})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	cases := []struct {
		name  string
		input CreateHouseInput
	}{
		{"missing name", CreateHouseInput{RoomType: enums.RoomTypeSingle, Price: decimal.NewFromInt(100)}},
		{"bad room type", CreateHouseInput{Name: "Casa", RoomType: "penthouse", Price: decimal.NewFromInt(100)}},
		{"zero price", CreateHouseInput{Name: "Casa", RoomType: enums.RoomTypeSingle}},
		{"bad latitude", CreateHouseInput{Name: "Casa", RoomType: enums.RoomTypeSingle, Price: decimal.NewFromInt(100), Lat: 91}},
		{"bad longitude", CreateHouseInput{Name: "Casa", RoomType: enums.RoomTypeSingle, Price: decimal.NewFromInt(100), Lng: -181}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateAssignsID(t *testing.T) {
	var created *models.House
	repo := &fakeRepo{
		createFn: func(_ context.Context, house *models.House) error {
			created = house
			return nil
		},
	}
	svc, _ := NewService(repo)

	house, err := svc.Create(context.Background(), CreateHouseInput{
		Name:         "Mile 17 Studio",
		RoomType:     enums.RoomTypeSingle,
		Price:        decimal.NewFromInt(45000),
		Availability: true,
		Lat:          4.15,
		Lng:          9.28,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if house.ID == uuid.Nil {
		t.Fatal("expected house id to be assigned")
	}
	if created != house {
		t.Fatal("expected the created house to reach the repository")
	}
}

func TestGetByIDMapsNotFound(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.House, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.GetByID(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRemoveSoftDeletes(t *testing.T) {
	existing := &models.House{ID: uuid.New(), Name: "Casa", Availability: true}
	var saved *models.House
	repo := &fakeRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.House, error) {
			return existing, nil
		},
		updateFn: func(_ context.Context, house *models.House) error {
			saved = house
			return nil
		},
	}
	svc, _ := NewService(repo)

	if err := svc.Remove(context.Background(), existing.ID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if saved == nil || !saved.Removed || saved.Availability {
		t.Fatalf("expected removed=true availability=false, got %+v", saved)
	}
}

func TestUpdateRejectsInvalidPrice(t *testing.T) {
	existing := &models.House{ID: uuid.New(), Name: "Casa", RoomType: enums.RoomTypeDouble, Price: decimal.NewFromInt(100)}
	repo := &fakeRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.House, error) {
			return existing, nil
		},
	}
	svc, _ := NewService(repo)

	zero := decimal.Zero
	_, err := svc.Update(context.Background(), existing.ID, UpdateHouseInput{Price: &zero})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
