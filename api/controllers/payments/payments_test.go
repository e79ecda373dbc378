package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studhome/studhome-backend/api/middleware"
	internalpayments "github.com/studhome/studhome-backend/internal/payments"
	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

type fakeInitiator struct {
	calls int
	input internalpayments.InitiateInput
	fn    func(input internalpayments.InitiateInput) (*internalpayments.InitiateResult, error)
}

func (f *fakeInitiator) Initiate(_ context.Context, input internalpayments.InitiateInput) (*internalpayments.InitiateResult, error) {
	f.calls++
	f.input = input
	return f.fn(input)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func doInitiate(handler http.HandlerFunc, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestInitiateAccepted(t *testing.T) {
	userID := uuid.New()
	houseID := uuid.New()
	txnID := uuid.New()

	svc := &fakeInitiator{
		fn: func(input internalpayments.InitiateInput) (*internalpayments.InitiateResult, error) {
			return &internalpayments.InitiateResult{
				Transaction: &models.Transaction{ID: txnID, Status: enums.PaymentStatusPending},
				Reference:   "camref-1",
				USSDCode:    "*126#",
				Operator:    "MTN",
			}, nil
		},
	}
	handler := Initiate(svc, testLogger())

	body := `{"house_id":"` + houseID.String() + `","amount":"100","transaction_type":"reserve","phone_number":"+237670000001"}`
	rec := doInitiate(handler, userID, body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	if svc.input.UserID != userID || svc.input.HouseID != houseID {
		t.Fatalf("service received wrong identifiers: %+v", svc.input)
	}
	if !svc.input.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected amount 100, got %s", svc.input.Amount)
	}

	var envelope struct {
		Data initiateResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Reference != "camref-1" || envelope.Data.TransactionID != txnID.String() {
		t.Fatalf("unexpected response payload: %+v", envelope.Data)
	}
}

func TestInitiateRejectsUnknownTransactionType(t *testing.T) {
	svc := &fakeInitiator{}
	handler := Initiate(svc, testLogger())

	body := `{"house_id":"` + uuid.NewString() + `","amount":"100","transaction_type":"rent","phone_number":"+237670000001"}`
	rec := doInitiate(handler, uuid.New(), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called on invalid input")
	}
}

func TestInitiateRequiresAuth(t *testing.T) {
	svc := &fakeInitiator{}
	handler := Initiate(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called without a user")
	}
}

func TestInitiateSurfacesConflict(t *testing.T) {
	svc := &fakeInitiator{
		fn: func(internalpayments.InitiateInput) (*internalpayments.InitiateResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "house is already reserved by another user")
		},
	}
	handler := Initiate(svc, testLogger())

	body := `{"house_id":"` + uuid.NewString() + `","amount":"100","transaction_type":"reserve","phone_number":"+237670000001"}`
	rec := doInitiate(handler, uuid.New(), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for conflict, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already reserved") {
		t.Fatalf("conflict message should pass through, got %s", rec.Body.String())
	}
}
