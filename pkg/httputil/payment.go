package httputil

import (
	"net/http"
	"regexp"
	"strings"
)

// Payment proof headers recognized by the paywall.
const (
	HeaderPaymentToken    = "X-Payment-Token"
	HeaderPaymentTx       = "X-Payment-Tx"
	HeaderPaymentRequired = "X-Payment-Required"
)

// ExtractPaymentToken extracts a payment token from the X-Payment-Token
// header, falling back to a Bearer Authorization header that looks like a
// JWT. Returns an empty string if no token is present.
func ExtractPaymentToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderPaymentToken)); v != "" {
		return v
	}

	auth := r.Header.Get("Authorization")
	if auth != "" {
		lower := strings.ToLower(auth)
		if strings.HasPrefix(lower, "bearer ") {
			tok := strings.TrimSpace(auth[len("Bearer "):])
			if IsJWT(tok) {
				return tok
			}
		}
	}

	return ""
}

// ExtractPaymentTx extracts a transaction hash from the X-Payment-Tx header.
// Returns an empty string if no hash is present.
func ExtractPaymentTx(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderPaymentTx))
}

// HasPaymentProof reports whether the request carries any payment proof header.
func HasPaymentProof(r *http.Request) bool {
	return ExtractPaymentToken(r) != "" || ExtractPaymentTx(r) != ""
}

// IsJWT checks if a token looks like a JWT (has exactly 2 dots separating 3 parts).
func IsJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// Transaction hashes are 32 bytes, so 0x plus 64 hex characters.
var txHashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidateTxHash checks if a string looks like an Ethereum transaction hash.
func ValidateTxHash(tx string) bool {
	return txHashRegex.MatchString(strings.TrimSpace(tx))
}
