package houses

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/studhome/studhome-backend/api/responses"
	"github.com/studhome/studhome-backend/api/validators"
	internalhouses "github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

type createHouseRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=128"`
	RoomType     string          `json:"room_type" validate:"required,oneof=single double apartment"`
	Description  *string         `json:"description,omitempty"`
	Price        string          `json:"price" validate:"required"`
	Availability bool            `json:"availability"`
	Lat          float64         `json:"lat" validate:"min=-90,max=90"`
	Lng          float64         `json:"lng" validate:"min=-180,max=180"`
	Media        json.RawMessage `json:"media,omitempty"`
}

type updateHouseRequest struct {
	Name         *string         `json:"name,omitempty" validate:"omitempty,min=2,max=128"`
	RoomType     *string         `json:"room_type,omitempty" validate:"omitempty,oneof=single double apartment"`
	Description  *string         `json:"description,omitempty"`
	Price        *string         `json:"price,omitempty"`
	Availability *bool           `json:"availability,omitempty"`
	Lat          *float64        `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng          *float64        `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Media        json.RawMessage `json:"media,omitempty"`
}

// List returns the public house catalogue with optional filters.
func List(svc internalhouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "houses service unavailable"))
			return
		}

		filter := internalhouses.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("room_type")); raw != "" {
			roomType, err := enums.ParseRoomType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid room_type"))
				return
			}
			filter.RoomType = &roomType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("available")); raw == "true" {
			filter.OnlyAvailable = true
		}

		houses, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, houses)
	}
}

// Detail returns one listing.
func Detail(svc internalhouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "houses service unavailable"))
			return
		}

		houseID, err := validators.ParseUUIDParam(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		house, err := svc.GetByID(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, house)
	}
}

// Create adds a listing. Staff only.
func Create(svc internalhouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "houses service unavailable"))
			return
		}

		var req createHouseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}

		house, err := svc.Create(r.Context(), internalhouses.CreateHouseInput{
			Name:         req.Name,
			RoomType:     enums.RoomType(req.RoomType),
			Description:  req.Description,
			Price:        price,
			Availability: req.Availability,
			Lat:          req.Lat,
			Lng:          req.Lng,
			Media:        req.Media,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, house)
	}
}

// Update edits a listing. Staff only.
func Update(svc internalhouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "houses service unavailable"))
			return
		}

		houseID, err := validators.ParseUUIDParam(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateHouseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalhouses.UpdateHouseInput{
			Name:         req.Name,
			Description:  req.Description,
			Availability: req.Availability,
			Lat:          req.Lat,
			Lng:          req.Lng,
			Media:        req.Media,
		}
		if req.RoomType != nil {
			roomType := enums.RoomType(*req.RoomType)
			input.RoomType = &roomType
		}
		if req.Price != nil {
			price, err := decimal.NewFromString(*req.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
				return
			}
			input.Price = &price
		}

		house, err := svc.Update(r.Context(), houseID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, house)
	}
}

// Remove soft-deletes a listing. Staff only.
func Remove(svc internalhouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "houses service unavailable"))
			return
		}

		houseID, err := validators.ParseUUIDParam(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), houseID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
