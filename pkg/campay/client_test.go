package campay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studhome/studhome-backend/pkg/config"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

func newTestServer(t *testing.T, collectHandler, statusHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": "test-token", "expires_in": 3600})
	})
	if collectHandler != nil {
		mux.HandleFunc("/collect/", collectHandler)
	}
	if statusHandler != nil {
		mux.HandleFunc("/transaction/", statusHandler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.CamPayConfig{
		AppUsername: "app",
		AppPassword: "secret",
	}, WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestInitiateCollect(t *testing.T) {
	var gotAuth string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req CollectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode collect body: %v", err)
		}
		if req.Amount != "100" || req.From != "+237650000001" {
			t.Fatalf("unexpected collect payload: %+v", req)
		}
		json.NewEncoder(w).Encode(CollectResponse{Reference: "ref-123", Operator: "MTN"})
	}, nil)

	client := newTestClient(t, server.URL)
	resp, err := client.InitiateCollect(context.Background(), CollectRequest{
		Amount:   "100",
		Currency: "XAF",
		From:     "+237650000001",
	})
	if err != nil {
		t.Fatalf("InitiateCollect: %v", err)
	}
	if resp.Reference != "ref-123" {
		t.Fatalf("unexpected reference %q", resp.Reference)
	}
	if gotAuth != "Token test-token" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestInitiateCollectMissingReference(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}, nil)

	client := newTestClient(t, server.URL)
	_, err := client.InitiateCollect(context.Background(), CollectRequest{Amount: "100"})
	if err == nil {
		t.Fatal("expected error for missing reference")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestGetTransactionStatus(t *testing.T) {
	server := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TransactionStatus{Reference: "ref-123", Status: "SUCCESSFUL"})
	})

	client := newTestClient(t, server.URL)
	status, err := client.GetTransactionStatus(context.Background(), "ref-123")
	if err != nil {
		t.Fatalf("GetTransactionStatus: %v", err)
	}
	if status.Status != "SUCCESSFUL" {
		t.Fatalf("unexpected status %q", status.Status)
	}
}

func TestGatewayErrorSurfacesUpstreamMessage(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "insufficient funds"})
	}, nil)

	client := newTestClient(t, server.URL)
	_, err := client.InitiateCollect(context.Background(), CollectRequest{Amount: "100"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["upstream"] != "insufficient funds" {
		t.Fatalf("expected upstream message in details, got %v", typed.Details())
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.CamPayConfig{}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}
