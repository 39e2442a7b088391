// Package x402 implements the HTTP-402 payment-requirements envelope.
// The JSON key set is fixed by the protocol; changing it breaks existing
// x402 clients.
package x402

import (
	"net/http"

	"github.com/DeBrosOfficial/agentpay/pkg/httputil"
)

// Protocol constants.
const (
	Protocol = "x402"
	Version  = 1
)

// PaymentRequired describes what the server will accept as payment.
type PaymentRequired struct {
	Protocol    string   `json:"protocol"`
	Version     int      `json:"version"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
	Recipient   string   `json:"recipient"`
	Description string   `json:"description"`
	Network     string   `json:"network"`
	Methods     []string `json:"methods"`
}

// Envelope is the body returned with HTTP status 402.
type Envelope struct {
	Error           string          `json:"error"`
	PaymentRequired PaymentRequired `json:"paymentRequired"`
}

// Requirements bundles the envelope with its HTTP status code and header.
type Requirements struct {
	StatusCode int
	Header     string
	Body       Envelope
}

// NewRequirements builds the 402 requirements for a priced resource.
func NewRequirements(amount, currency, recipient, description, network string) Requirements {
	return Requirements{
		StatusCode: http.StatusPaymentRequired,
		Header:     Protocol,
		Body: Envelope{
			Error: "Payment required",
			PaymentRequired: PaymentRequired{
				Protocol:    Protocol,
				Version:     Version,
				Amount:      amount,
				Currency:    currency,
				Recipient:   recipient,
				Description: description,
				Network:     network,
				Methods:     []string{"crypto"},
			},
		},
	}
}

// Write emits the requirements as an HTTP response.
func (r Requirements) Write(w http.ResponseWriter) {
	w.Header().Set(httputil.HeaderPaymentRequired, r.Header)
	httputil.WriteJSON(w, r.StatusCode, r.Body)
}
