package payments

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
)

// CurrencyInfo describes a currency the payment client can settle.
type CurrencyInfo struct {
	Symbol   string
	Decimals int

	// Native is true for the chain's gas token; false means an ERC-20
	// token resolved per network.
	Native bool
}

var currencies = map[string]CurrencyInfo{
	"ETH":  {Symbol: "ETH", Decimals: 18, Native: true},
	"USDC": {Symbol: "USDC", Decimals: 6},
}

// LookupCurrency returns info for a supported currency symbol.
func LookupCurrency(symbol string) (CurrencyInfo, error) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return CurrencyInfo{}, errors.NewUnsupportedCurrencyError(symbol)
	}
	return c, nil
}

// ToMinorUnits converts a decimal amount string into integer minor units
// at the currency's precision. Digits beyond the precision are rejected.
func ToMinorUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}

	whole, frac := amount, ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole, frac = amount[:idx], amount[idx+1:]
	}
	if whole == "" || !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q exceeds %d decimal places", amount, decimals)
	}

	frac = frac + strings.Repeat("0", decimals-len(frac))
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	return v, nil
}

// FromMinorUnits renders integer minor units as a decimal string with
// trailing zeros trimmed.
func FromMinorUnits(v *big.Int, decimals int) string {
	s := v.String()
	if decimals == 0 {
		return s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
