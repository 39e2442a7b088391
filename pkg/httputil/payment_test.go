package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractPaymentToken(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJwYXkifQ.c2ln"

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "payment token header",
			headers: map[string]string{HeaderPaymentToken: jwt},
			want:    jwt,
		},
		{
			name:    "bearer jwt fallback",
			headers: map[string]string{"Authorization": "Bearer " + jwt},
			want:    jwt,
		},
		{
			name:    "bearer non-jwt ignored",
			headers: map[string]string{"Authorization": "Bearer opaque-token"},
			want:    "",
		},
		{
			name:    "no headers",
			headers: nil,
			want:    "",
		},
		{
			name:    "header trimmed",
			headers: map[string]string{HeaderPaymentToken: "  " + jwt + "  "},
			want:    jwt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/paid", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ExtractPaymentToken(r); got != tt.want {
				t.Errorf("ExtractPaymentToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTxHash(t *testing.T) {
	tests := []struct {
		name string
		tx   string
		want bool
	}{
		{"valid lowercase", "0x" + strings.Repeat("ab", 32), true},
		{"valid mixed case", "0x" + strings.Repeat("Ab", 32), true},
		{"missing prefix", strings.Repeat("ab", 32), false},
		{"too short", "0x" + strings.Repeat("ab", 31), false},
		{"too long", "0x" + strings.Repeat("ab", 33), false},
		{"non-hex", "0x" + strings.Repeat("zz", 32), false},
		{"empty", "", false},
		{"whitespace padded", "  0x" + strings.Repeat("ab", 32) + "  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTxHash(tt.tx); got != tt.want {
				t.Errorf("ValidateTxHash(%q) = %v, want %v", tt.tx, got, tt.want)
			}
		})
	}
}

func TestHasPaymentProof(t *testing.T) {
	r := httptest.NewRequest("GET", "/paid", nil)
	if HasPaymentProof(r) {
		t.Error("HasPaymentProof() = true for bare request")
	}

	r.Header.Set(HeaderPaymentTx, "0x"+strings.Repeat("00", 32))
	if !HasPaymentProof(r) {
		t.Error("HasPaymentProof() = false with X-Payment-Tx set")
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"10.0", true},
		{"0.25", true},
		{"100", true},
		{"-1", false},
		{"1e5", false},
		{"10.", false},
		{".5", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := ValidateAmount(tt.amount); got != tt.want {
				t.Errorf("ValidateAmount(%q) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}
