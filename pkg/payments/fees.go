package payments

import (
	"math/big"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
)

// DefaultFeePercent is the protocol fee applied when none is configured.
const DefaultFeePercent = 2.5

// Quote is a client-side cost estimate. The fee is added on top of the
// requested amount: the payee receives Amount, the treasury receives Fee,
// and the payer spends Total.
type Quote struct {
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
	Total  string `json:"total"`
}

// CalculateFee computes the fee leg in minor units, truncating toward zero
// at the currency's precision.
func CalculateFee(amountMinor *big.Int, feePercent float64) *big.Int {
	if feePercent == 0 || amountMinor.Sign() == 0 {
		return big.NewInt(0)
	}

	pct := new(big.Rat).SetFloat64(feePercent)
	fee := new(big.Rat).Mul(new(big.Rat).SetInt(amountMinor), pct)
	fee.Quo(fee, big.NewRat(100, 1))

	// Truncate: minor units are already at currency precision.
	out := new(big.Int).Quo(fee.Num(), fee.Denom())
	return out
}

// ValidateFeePercent rejects percentages outside [0, 100].
func ValidateFeePercent(feePercent float64) error {
	if feePercent < 0 || feePercent > 100 {
		return errors.NewValidationError("fee_percent", "fee percentage must be between 0 and 100", feePercent)
	}
	return nil
}

// QuoteTotalCost computes the fee and total for a decimal amount in the
// given currency. The returned Amount echoes the input string.
func QuoteTotalCost(amount, currency string, feePercent float64) (Quote, error) {
	info, err := LookupCurrency(currency)
	if err != nil {
		return Quote{}, err
	}

	amountMinor, err := ToMinorUnits(amount, info.Decimals)
	if err != nil {
		return Quote{}, errors.NewValidationError("amount", err.Error(), amount)
	}

	feeMinor := CalculateFee(amountMinor, feePercent)
	totalMinor := new(big.Int).Add(amountMinor, feeMinor)

	return Quote{
		Amount: amount,
		Fee:    FromMinorUnits(feeMinor, info.Decimals),
		Total:  FromMinorUnits(totalMinor, info.Decimals),
	}, nil
}
