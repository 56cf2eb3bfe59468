package paystack_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/projectnest/projectnest/internal/gateway/paystack"
	"go.uber.org/zap"
)

const testSecret = "sk_test_123"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := paystack.NewWithBaseURL(testSecret, "http://unused", zap.NewNop())

	body := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)
	header := sign(testSecret, body)

	if !client.VerifySignature(body, header) {
		t.Fatalf("valid signature rejected")
	}

	tampered := []byte(`{"event":"charge.success","data":{"reference":"ref_1","amount":1}}`)
	if client.VerifySignature(tampered, header) {
		t.Fatalf("tampered body accepted")
	}
	if client.VerifySignature(body, "") {
		t.Fatalf("missing header accepted")
	}
	if client.VerifySignature(body, sign("sk_other", body)) {
		t.Fatalf("signature under wrong key accepted")
	}

	// Paystack sends lowercase hex; uppercase input must still match.
	upper := client.VerifySignature(body, fmt.Sprintf("%X", mustDecodeHex(t, header)))
	if !upper {
		t.Fatalf("uppercase digest rejected")
	}
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}
	return b
}

func TestVerifySignatureEmptySecret(t *testing.T) {
	client := paystack.NewWithBaseURL("", "http://unused", zap.NewNop())
	body := []byte(`{}`)
	if client.VerifySignature(body, sign("", body)) {
		t.Fatalf("empty secret must never verify")
	}
}

func TestVerifyConvertsKoboToMajorUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref_kobo" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+testSecret {
			t.Fatalf("unexpected auth header %q", got)
		}
		fmt.Fprint(w, `{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"amount": 750000,
				"currency": "NGN",
				"metadata": {"project_id": "12345"},
				"customer": {"email": "student@example.com"}
			}
		}`)
	}))
	defer srv.Close()

	client := paystack.NewWithBaseURL(testSecret, srv.URL, zap.NewNop())
	result := client.Verify(context.Background(), "ref_kobo")

	if !result.Success {
		t.Fatalf("expected success, got reason %q", result.Reason)
	}
	if result.Amount != 7500 {
		t.Fatalf("expected 7500 NGN, got %d", result.Amount)
	}
	if result.Email != "student@example.com" {
		t.Fatalf("expected customer email, got %q", result.Email)
	}
	var meta struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(result.Metadata, &meta); err != nil || meta.ProjectID != "12345" {
		t.Fatalf("metadata not passed through: %s", result.Metadata)
	}
	if len(result.Raw) == 0 {
		t.Fatalf("raw body not captured")
	}
}

func TestVerifyNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": true, "data": {"status": "abandoned", "amount": 750000}}`)
	}))
	defer srv.Close()

	client := paystack.NewWithBaseURL(testSecret, srv.URL, zap.NewNop())
	result := client.Verify(context.Background(), "ref_abandoned")

	if result.Success {
		t.Fatalf("abandoned charge treated as success")
	}
	if result.Status != "abandoned" {
		t.Fatalf("expected abandoned, got %q", result.Status)
	}
}

func TestVerifyUnknownReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status": false, "message": "Transaction reference not found"}`)
	}))
	defer srv.Close()

	client := paystack.NewWithBaseURL(testSecret, srv.URL, zap.NewNop())
	result := client.Verify(context.Background(), "ref_missing")

	if result.Success {
		t.Fatalf("missing reference treated as success")
	}
	if result.Reason != "unknown_reference" {
		t.Fatalf("expected unknown_reference, got %q", result.Reason)
	}
}

func TestVerifyUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := paystack.NewWithBaseURL(testSecret, srv.URL, zap.NewNop())
	result := client.Verify(context.Background(), "ref_down")

	if result.Success {
		t.Fatalf("unreachable gateway treated as success")
	}
	if result.Reason != "gateway_unreachable" {
		t.Fatalf("expected gateway_unreachable, got %q", result.Reason)
	}
}

func TestInitializeSendsKoboAmount(t *testing.T) {
	var captured struct {
		Email     string          `json:"email"`
		Amount    int64           `json:"amount"`
		Reference string          `json:"reference"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"status": true, "data": {"authorization_url": "https://checkout.paystack.com/xyz", "reference": "ref_1"}}`)
	}))
	defer srv.Close()

	client := paystack.NewWithBaseURL(testSecret, srv.URL, zap.NewNop())
	url, err := client.Initialize(context.Background(), "student@example.com", 15000, "ref_1", "", json.RawMessage(`{"project_id":"1"}`))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if url != "https://checkout.paystack.com/xyz" {
		t.Fatalf("unexpected authorization url %q", url)
	}
	if captured.Amount != 1500000 {
		t.Fatalf("expected 1500000 kobo on the wire, got %d", captured.Amount)
	}
	if captured.Reference != "ref_1" || captured.Email != "student@example.com" {
		t.Fatalf("request fields not forwarded: %+v", captured)
	}
}

func TestInitializeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status": false, "message": "Invalid email address"}`)
	}))
	defer srv.Close()

	client := paystack.NewWithBaseURL(testSecret, srv.URL, zap.NewNop())
	if _, err := client.Initialize(context.Background(), "bad", 7500, "ref_1", "", nil); err == nil {
		t.Fatalf("expected error for rejected initialize")
	}
}
