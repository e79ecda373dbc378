package campay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/studhome/studhome-backend/pkg/config"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://demo.campay.net/api"
	responseBodyReadLimit      = 1 << 20
	tokenExpirySafetyMargin    = 30 * time.Second
	defaultClientTimeout       = 15 * time.Second
	defaultTokenLifetimeFallbk = 5 * time.Minute
)

var errCredentialsRequired = errors.New("campay app credentials are required")

// Client wraps the CamPay mobile-money collect API. All calls are blocking
// round trips bound to the caller's context; retries are the caller's concern.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a CamPay client from configuration.
func NewClient(cfg config.CamPayConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.AppUsername) == "" || strings.TrimSpace(cfg.AppPassword) == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		username:   strings.TrimSpace(cfg.AppUsername),
		password:   strings.TrimSpace(cfg.AppPassword),
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// CollectRequest describes the payload sent to the collect endpoint.
type CollectRequest struct {
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	From              string `json:"from"`
	Description       string `json:"description"`
	ExternalReference string `json:"external_reference"`
}

// CollectResponse carries the gateway's acknowledgment of a collect request.
type CollectResponse struct {
	Reference string `json:"reference"`
	USSDCode  string `json:"ussd_code"`
	Operator  string `json:"operator"`
}

// TransactionStatus is the gateway's view of one payment attempt.
type TransactionStatus struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Operator  string `json:"operator"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// InitiateCollect asks the gateway to start a mobile-money collection and
// returns the payment reference that tracks it.
func (c *Client) InitiateCollect(ctx context.Context, req CollectRequest) (*CollectResponse, error) {
	var resp CollectResponse
	if err := c.doJSON(ctx, http.MethodPost, "/collect/", req, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned no payment reference")
	}
	return &resp, nil
}

// GetTransactionStatus polls the gateway for the current status of a reference.
func (c *Client) GetTransactionStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	var resp TransactionStatus
	if err := c.doJSON(ctx, http.MethodGet, "/transaction/"+ref+"/", nil, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned no status")
	}
	return &resp, nil
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token/", bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build token request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "request gateway token")
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, responseBodyReadLimit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read token response")
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", gatewayError(httpResp.StatusCode, payload, "gateway token request failed")
	}

	var tok tokenResponse
	if err := json.Unmarshal(payload, &tok); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode token response")
	}
	if strings.TrimSpace(tok.Token) == "" {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "gateway returned empty token")
	}

	lifetime := defaultTokenLifetimeFallbk
	if tok.ExpiresIn > 0 {
		lifetime = time.Duration(tok.ExpiresIn) * time.Second
	}
	c.token = tok.Token
	c.tokenExpiry = time.Now().Add(lifetime - tokenExpirySafetyMargin)
	return c.token, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Token "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "call payment gateway")
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read gateway response")
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return gatewayError(httpResp.StatusCode, payload, "payment gateway rejected the request")
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode gateway response")
		}
	}
	return nil
}

func gatewayError(status int, payload []byte, message string) error {
	detail := strings.TrimSpace(string(payload))
	var parsed map[string]any
	if err := json.Unmarshal(payload, &parsed); err == nil {
		if m, ok := parsed["message"].(string); ok && m != "" {
			detail = m
		}
	}
	return pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("%s (status %d)", message, status)).
		WithDetails(map[string]any{"upstream": detail})
}
