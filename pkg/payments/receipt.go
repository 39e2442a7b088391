package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// Payment is the settled record a receipt attests to.
// Field order is fixed: the receipt identifier is a hash over this
// struct's canonical JSON.
type Payment struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
	Currency  string `json:"currency"`
	Network   string `json:"network"`
	TxHash    string `json:"txHash"`
	FeeTxHash string `json:"feeTxHash,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Receipt is a signed proof of payment.
type Receipt struct {
	ReceiptID string  `json:"receiptId"`
	Payment   Payment `json:"payment"`
	Signature string  `json:"signature,omitempty"`
}

// CreateReceipt builds an unsigned receipt whose identifier is the SHA-256
// of the payment's canonical JSON.
func CreateReceipt(p Payment) Receipt {
	raw, _ := json.Marshal(p)
	sum := sha256.Sum256(raw)
	return Receipt{
		ReceiptID: hex.EncodeToString(sum[:]),
		Payment:   p,
	}
}

// receiptMessage is the fixed-format text the payer signs. The receipt
// identifier commits to every payment field, so tampering with any field
// invalidates the signature.
func receiptMessage(r Receipt) []byte {
	return []byte(fmt.Sprintf(
		"x402 payment receipt\nid: %s\nfrom: %s\nto: %s\namount: %s %s\nnetwork: %s\ntx: %s\ntimestamp: %d",
		r.ReceiptID,
		strings.ToLower(r.Payment.From),
		strings.ToLower(r.Payment.To),
		r.Payment.Amount, r.Payment.Currency,
		r.Payment.Network,
		r.Payment.TxHash,
		r.Payment.Timestamp,
	))
}

// SignReceipt signs the receipt with the payer's wallet.
func SignReceipt(w *wallet.Wallet, r Receipt) (Receipt, error) {
	if !wallet.SameAddress(w.Address().Hex(), r.Payment.From) {
		return Receipt{}, fmt.Errorf("signer %s is not the payer %s", w.Address().Hex(), r.Payment.From)
	}

	sig, err := w.SignPersonal(receiptMessage(r))
	if err != nil {
		return Receipt{}, err
	}

	r.Signature = "0x" + hex.EncodeToString(sig)
	return r, nil
}

// VerifyReceipt checks that the receipt identifier matches the payment
// record and that the signature recovers to the claimed payer. It returns
// false on any malformed input rather than an error.
func VerifyReceipt(r Receipt) bool {
	if r.Signature == "" {
		return false
	}

	// Recompute the identifier; any altered field changes it.
	if CreateReceipt(r.Payment).ReceiptID != r.ReceiptID {
		return false
	}

	sigHex := strings.TrimPrefix(strings.TrimPrefix(r.Signature, "0x"), "0X")
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != 65 {
		return false
	}

	signer, err := wallet.RecoverPersonal(receiptMessage(r), sig)
	if err != nil {
		return false
	}

	return wallet.SameAddress(signer.Hex(), r.Payment.From)
}
