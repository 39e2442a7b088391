package paywall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DeBrosOfficial/agentpay/pkg/httputil"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
	"github.com/DeBrosOfficial/agentpay/pkg/payments"
	"github.com/DeBrosOfficial/agentpay/pkg/x402"
)

const (
	testRecipient = "0x1ab52EcC6a7b4893b04f9e22cBcBae80035E5bB8"
	goodToken     = "header.payload.signature"
	goodTx        = "0xabcd000000000000000000000000000000000000000000000000000000000000"
)

// fakeVerifier accepts exactly one token and one transaction hash.
type fakeVerifier struct {
	network networks.Network
}

func newFakeVerifier(t *testing.T) *fakeVerifier {
	t.Helper()
	network, err := networks.Lookup("base-sepolia")
	if err != nil {
		t.Fatalf("networks.Lookup() error: %v", err)
	}
	return &fakeVerifier{network: network}
}

func (v *fakeVerifier) VerifyToken(tokenString string) (*payments.PaymentClaims, error) {
	if tokenString == goodToken {
		return &payments.PaymentClaims{PaymentID: "pay-1"}, nil
	}
	return nil, fmt.Errorf("invalid payment token")
}

func (v *fakeVerifier) VerifyPaymentTx(ctx context.Context, txHash string) (bool, error) {
	return txHash == goodTx, nil
}

func (v *fakeVerifier) Network() networks.Network {
	return v.network
}

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(newFakeVerifier(t), Options{Recipient: testRecipient}, nil)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	err = srv.Register(Endpoint{
		Path:        "/api/report",
		Amount:      "5.0",
		Currency:    "USDC",
		Description: "market report",
		Handler: func(r *http.Request) (any, error) {
			return map[string]string{"report": "bullish"}, nil
		},
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	err = srv.Register(Endpoint{
		Path:     "/api/broken",
		Amount:   "1.0",
		Currency: "USDC",
		Handler: func(r *http.Request) (any, error) {
			return nil, fmt.Errorf("downstream unavailable")
		},
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	return srv
}

func do(t *testing.T, srv *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestUnknownPathIs404(t *testing.T) {
	rec := do(t, testServer(t), "GET", "/api/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMissingPaymentGets402Envelope(t *testing.T) {
	srv := testServer(t)

	for _, method := range []string{"GET", "POST"} {
		rec := do(t, srv, method, "/api/report", nil)
		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("%s status = %d, want 402", method, rec.Code)
		}
		if got := rec.Header().Get(httputil.HeaderPaymentRequired); got != "x402" {
			t.Errorf("X-Payment-Required = %q, want x402", got)
		}

		var envelope x402.Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("bad envelope JSON: %v", err)
		}
		pr := envelope.PaymentRequired
		if pr.Protocol != "x402" || pr.Version != 1 {
			t.Errorf("protocol/version = %s/%d", pr.Protocol, pr.Version)
		}
		if pr.Amount != "5.0" || pr.Currency != "USDC" {
			t.Errorf("amount/currency = %s/%s, want 5.0/USDC", pr.Amount, pr.Currency)
		}
		if pr.Recipient != testRecipient {
			t.Errorf("recipient = %s, want %s", pr.Recipient, testRecipient)
		}
		if pr.Network != "base-sepolia" {
			t.Errorf("network = %s, want base-sepolia", pr.Network)
		}
		if len(pr.Methods) != 1 || pr.Methods[0] != "crypto" {
			t.Errorf("methods = %v, want [crypto]", pr.Methods)
		}
	}
}

func TestValidTokenServesData(t *testing.T) {
	rec := do(t, testServer(t), "GET", "/api/report", map[string]string{
		httputil.HeaderPaymentToken: goodToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.Data["report"] != "bullish" {
		t.Errorf("data = %v", body.Data)
	}
}

func TestBearerTokenAlsoAccepted(t *testing.T) {
	rec := do(t, testServer(t), "GET", "/api/report", map[string]string{
		"Authorization": "Bearer " + goodToken,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestValidTxHashServesData(t *testing.T) {
	rec := do(t, testServer(t), "POST", "/api/report", map[string]string{
		httputil.HeaderPaymentTx: goodTx,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestInvalidProofGets402(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"bad token", map[string]string{httputil.HeaderPaymentToken: "forged.token.value"}},
		{"malformed tx hash", map[string]string{httputil.HeaderPaymentTx: "0x1234"}},
		{"unverified tx hash", map[string]string{httputil.HeaderPaymentTx: "0x" + "99" + goodTx[4:]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, "GET", "/api/report", tt.headers)
			if rec.Code != http.StatusPaymentRequired {
				t.Fatalf("status = %d, want 402", rec.Code)
			}
			var envelope x402.Envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("bad envelope JSON: %v", err)
			}
			if envelope.Error != "Invalid payment proof" {
				t.Errorf("error = %q, want invalid-proof message", envelope.Error)
			}
		})
	}
}

func TestHandlerErrorIs500(t *testing.T) {
	rec := do(t, testServer(t), "GET", "/api/broken", map[string]string{
		httputil.HeaderPaymentToken: goodToken,
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := testServer(t)
	handler := func(r *http.Request) (any, error) { return nil, nil }

	tests := []struct {
		name string
		e    Endpoint
	}{
		{"missing slash", Endpoint{Path: "api/x", Amount: "1", Currency: "USDC", Handler: handler}},
		{"bad amount", Endpoint{Path: "/api/x", Amount: "-1", Currency: "USDC", Handler: handler}},
		{"unsupported currency", Endpoint{Path: "/api/x", Amount: "1", Currency: "DOGE", Handler: handler}},
		{"nil handler", Endpoint{Path: "/api/x", Amount: "1", Currency: "USDC"}},
		{"duplicate path", Endpoint{Path: "/api/report", Amount: "1", Currency: "USDC", Handler: handler}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := srv.Register(tt.e); err == nil {
				t.Error("Register() accepted an invalid endpoint")
			}
		})
	}
}

func TestNewServerValidatesRecipient(t *testing.T) {
	if _, err := NewServer(newFakeVerifier(t), Options{}, nil); err == nil {
		t.Error("NewServer() accepted an empty recipient")
	}
	if _, err := NewServer(newFakeVerifier(t), Options{Recipient: "treasury"}, nil); err == nil {
		t.Error("NewServer() accepted a malformed recipient")
	}
}
