package payments

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PaymentClaims is the claim set of a payment token. A token is minted
// after settlement and lets the paywall accept proof without a chain
// round-trip.
type PaymentClaims struct {
	PaymentID string `json:"payment_id"`
	TxHash    string `json:"tx_hash"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Network   string `json:"network"`
	jwt.RegisteredClaims
}

// MintPaymentToken issues an HS256 payment token for a settled receipt.
func MintPaymentToken(secret []byte, r Receipt, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("payment token secret is empty")
	}

	now := time.Now()
	claims := PaymentClaims{
		PaymentID: r.Payment.ID,
		TxHash:    r.Payment.TxHash,
		Amount:    r.Payment.Amount,
		Currency:  r.Payment.Currency,
		Network:   r.Payment.Network,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   r.Payment.From,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        r.ReceiptID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyPaymentToken parses and validates a payment token.
func VerifyPaymentToken(secret []byte, tokenString string) (*PaymentClaims, error) {
	claims := &PaymentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid payment token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid payment token")
	}
	return claims, nil
}
