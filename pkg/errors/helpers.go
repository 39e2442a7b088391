package errors

import "errors"

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsConfig checks if an error is a client misconfiguration error.
func IsConfig(err error) bool {
	if err == nil {
		return false
	}

	var configErr *ConfigError
	return errors.As(err, &configErr) || errors.Is(err, ErrNoSigner)
}

// IsPayment checks if an error is a payment quoting or settlement error.
func IsPayment(err error) bool {
	if err == nil {
		return false
	}

	var paymentErr *PaymentError
	return errors.As(err, &paymentErr) || errors.Is(err, ErrPaymentRequired)
}

// IsUnsupportedCurrency checks if an error indicates an unknown currency.
func IsUnsupportedCurrency(err error) bool {
	if err == nil {
		return false
	}

	var currencyErr *UnsupportedCurrencyError
	return errors.As(err, &currencyErr)
}

// IsUnsupportedNetwork checks if an error indicates an unknown network name.
func IsUnsupportedNetwork(err error) bool {
	if err == nil {
		return false
	}

	var networkErr *UnsupportedNetworkError
	return errors.As(err, &networkErr)
}

// IsStorage checks if an error is a storage backend error.
func IsStorage(err error) bool {
	if err == nil {
		return false
	}

	var storageErr *StorageError
	return errors.As(err, &storageErr) || errors.Is(err, ErrNoStorageBackend)
}

// IsContract checks if an error is an on-chain contract error.
func IsContract(err error) bool {
	if err == nil {
		return false
	}

	var contractErr *ContractError
	return errors.As(err, &contractErr)
}

// IsIntegrity checks if an error is a process-integrity error.
func IsIntegrity(err error) bool {
	if err == nil {
		return false
	}

	var integrityErr *IntegrityError
	return errors.As(err, &integrityErr)
}

// IsTimeout checks if an error indicates a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrTimeout)
}

// CodeOf returns the error code for an error, or CodeUnknown when the
// error carries no code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	switch {
	case errors.Is(err, ErrNoStorageBackend):
		return CodeNoBackend
	case errors.Is(err, ErrPaymentRequired):
		return CodePaymentRequired
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	}
	return CodeUnknown
}
