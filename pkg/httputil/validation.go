package httputil

import (
	"regexp"
	"strings"
)

// CID validation regex - basic IPFS CID pattern (v0 and v1)
// v0: Qm... (base58, 46 characters)
// v1: b... or z... (base32/base58, variable length)
var cidRegex = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|b[a-z2-7]{58,}|z[1-9A-HJ-NP-Za-km-z]{48,})$`)

// ValidateCID checks if a string is a valid IPFS CID.
func ValidateCID(cid string) bool {
	return cidRegex.MatchString(strings.TrimSpace(cid))
}

// ValidateWalletAddress checks if a string looks like an Ethereum wallet address.
// Valid addresses are 40 hex characters, optionally prefixed with "0x".
var walletRegex = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

func ValidateWalletAddress(wallet string) bool {
	return walletRegex.MatchString(strings.TrimSpace(wallet))
}

// NormalizeWalletAddress normalizes a wallet address by removing "0x" prefix and converting to lowercase.
func NormalizeWalletAddress(wallet string) string {
	wallet = strings.TrimSpace(wallet)
	wallet = strings.TrimPrefix(wallet, "0x")
	wallet = strings.TrimPrefix(wallet, "0X")
	return strings.ToLower(wallet)
}

// ValidateAmount checks if a string is a plain decimal amount: digits with
// an optional single decimal point, no sign, no exponent.
var amountRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

func ValidateAmount(amount string) bool {
	return amountRegex.MatchString(strings.TrimSpace(amount))
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsNotEmpty checks if a string is not empty after trimming whitespace.
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
