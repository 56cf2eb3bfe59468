package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/projectnest/projectnest/internal/config"
	"github.com/projectnest/projectnest/internal/observability/metrics"
	"github.com/projectnest/projectnest/internal/payment/domain"
	"go.uber.org/zap"
)

var _ domain.Gateway = (*Client)(nil)

// SignatureHeader carries the HMAC-SHA512 digest Paystack computes over
// the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// Client talks to the Paystack REST API. Amounts cross the wire in kobo;
// everything above this package uses NGN major units.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func New(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *Client {
	return &Client{
		secretKey: cfg.Paystack.SecretKey,
		baseURL:   strings.TrimRight(cfg.Paystack.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.Paystack.Timeout},
		log:       log.Named("gateway.paystack"),
		metrics:   m,
	}
}

// NewWithBaseURL builds a client against an arbitrary endpoint. Tests point
// this at an httptest server.
func NewWithBaseURL(secretKey, baseURL string, log *zap.Logger) *Client {
	return &Client{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log.Named("gateway.paystack"),
	}
}

// VerifySignature reports whether header is a valid HMAC-SHA512 hex digest
// of rawBody under the secret key. It must run against the exact bytes
// received, before any JSON parsing.
func (c *Client) VerifySignature(rawBody []byte, header string) bool {
	header = strings.TrimSpace(header)
	if header == "" || c.secretKey == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(header)))
}

type initializeRequest struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Reference   string          `json:"reference"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Initialize starts a hosted checkout for the given amount in NGN major
// units and returns the authorization URL the payer is redirected to.
func (c *Client) Initialize(ctx context.Context, email string, amount int64, reference, callbackURL string, metadata json.RawMessage) (string, error) {
	start := time.Now()

	payload := initializeRequest{
		Email:       email,
		Amount:      amount * 100, // kobo
		Reference:   reference,
		CallbackURL: callbackURL,
		Metadata:    metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveGatewayCall("initialize", "unreachable", time.Since(start))
		return "", fmt.Errorf("paystack initialize: %w", err)
	}
	defer resp.Body.Close()

	var out initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.metrics.ObserveGatewayCall("initialize", "bad_response", time.Since(start))
		return "", fmt.Errorf("decode initialize response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Status || out.Data.AuthorizationURL == "" {
		c.metrics.ObserveGatewayCall("initialize", "declined", time.Since(start))
		return "", fmt.Errorf("paystack initialize rejected: %s", out.Message)
	}

	c.metrics.ObserveGatewayCall("initialize", "ok", time.Since(start))
	return out.Data.AuthorizationURL, nil
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string          `json:"status"`
		Amount   int64           `json:"amount"`
		Currency string          `json:"currency"`
		Metadata json.RawMessage `json:"metadata"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// Verify fetches the authoritative state of a transaction. It is read-only
// on both sides and safe to call any number of times.
func (c *Client) Verify(ctx context.Context, reference string) domain.VerifyResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return domain.VerifyResult{Success: false, Reason: "bad_request"}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveGatewayCall("verify", "unreachable", time.Since(start))
		c.log.Warn("gateway verify unreachable", zap.String("reference", reference), zap.Error(err))
		return domain.VerifyResult{Success: false, Reason: "gateway_unreachable"}
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	var out verifyResponse
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&out); err != nil {
		c.metrics.ObserveGatewayCall("verify", "bad_response", time.Since(start))
		c.log.Warn("gateway verify decode failed", zap.String("reference", reference), zap.Error(err))
		return domain.VerifyResult{Success: false, Reason: "bad_response", Raw: raw.Bytes()}
	}

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.ObserveGatewayCall("verify", "not_found", time.Since(start))
		return domain.VerifyResult{Success: false, Reason: "unknown_reference", Raw: raw.Bytes()}
	}
	if resp.StatusCode != http.StatusOK || !out.Status {
		c.metrics.ObserveGatewayCall("verify", "declined", time.Since(start))
		return domain.VerifyResult{Success: false, Status: out.Data.Status, Reason: "gateway_declined", Raw: raw.Bytes()}
	}

	c.metrics.ObserveGatewayCall("verify", "ok", time.Since(start))
	return domain.VerifyResult{
		Success:  strings.EqualFold(out.Data.Status, "success"),
		Status:   strings.ToLower(out.Data.Status),
		Amount:   out.Data.Amount / 100, // kobo back to major units
		Email:    out.Data.Customer.Email,
		Metadata: out.Data.Metadata,
		Raw:      raw.Bytes(),
	}
}
