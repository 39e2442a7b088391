package payments

import (
	"strings"
	"testing"
	"time"
)

func TestPaymentTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	receipt := CreateReceipt(testPayment(t, "0x1111111111111111111111111111111111111111"))

	token, err := MintPaymentToken(secret, receipt, time.Minute)
	if err != nil {
		t.Fatalf("MintPaymentToken() error: %v", err)
	}

	claims, err := VerifyPaymentToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyPaymentToken() error: %v", err)
	}
	if claims.PaymentID != receipt.Payment.ID {
		t.Errorf("payment ID = %s, want %s", claims.PaymentID, receipt.Payment.ID)
	}
	if claims.TxHash != receipt.Payment.TxHash {
		t.Errorf("tx hash = %s, want %s", claims.TxHash, receipt.Payment.TxHash)
	}
	if claims.Amount != receipt.Payment.Amount {
		t.Errorf("amount = %s, want %s", claims.Amount, receipt.Payment.Amount)
	}
	if claims.Subject != receipt.Payment.From {
		t.Errorf("subject = %s, want %s", claims.Subject, receipt.Payment.From)
	}
	if claims.ID != receipt.ReceiptID {
		t.Errorf("jti = %s, want %s", claims.ID, receipt.ReceiptID)
	}
}

func TestPaymentTokenWrongSecret(t *testing.T) {
	receipt := CreateReceipt(testPayment(t, "0x1111111111111111111111111111111111111111"))
	token, err := MintPaymentToken([]byte("secret-a"), receipt, time.Minute)
	if err != nil {
		t.Fatalf("MintPaymentToken() error: %v", err)
	}
	if _, err := VerifyPaymentToken([]byte("secret-b"), token); err == nil {
		t.Error("VerifyPaymentToken() accepted a token signed with a different secret")
	}
}

func TestPaymentTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	receipt := CreateReceipt(testPayment(t, "0x1111111111111111111111111111111111111111"))
	token, err := MintPaymentToken(secret, receipt, -time.Minute)
	if err != nil {
		t.Fatalf("MintPaymentToken() error: %v", err)
	}
	if _, err := VerifyPaymentToken(secret, token); err == nil {
		t.Error("VerifyPaymentToken() accepted an expired token")
	}
}

func TestPaymentTokenTampered(t *testing.T) {
	secret := []byte("test-secret")
	receipt := CreateReceipt(testPayment(t, "0x1111111111111111111111111111111111111111"))
	token, err := MintPaymentToken(secret, receipt, time.Minute)
	if err != nil {
		t.Fatalf("MintPaymentToken() error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + "AAAA"
	if _, err := VerifyPaymentToken(secret, tampered); err == nil {
		t.Error("VerifyPaymentToken() accepted a tampered signature")
	}
	if _, err := VerifyPaymentToken(secret, "not-a-token"); err == nil {
		t.Error("VerifyPaymentToken() accepted garbage")
	}
}

func TestPaymentTokenEmptySecret(t *testing.T) {
	receipt := CreateReceipt(testPayment(t, "0x1111111111111111111111111111111111111111"))
	if _, err := MintPaymentToken(nil, receipt, time.Minute); err == nil {
		t.Error("MintPaymentToken() accepted an empty secret")
	}
}
