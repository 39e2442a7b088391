package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where applicable.
const (
	// CodeUnknown indicates an unknown error occurred.
	CodeUnknown = "UNKNOWN"

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeUnauthorized indicates authentication is required or failed.
	CodeUnauthorized = "UNAUTHORIZED"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeTimeout indicates an operation timed out.
	CodeTimeout = "TIMEOUT"

	// CodeServiceUnavailable indicates a downstream service is unavailable.
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Domain-specific error codes

	// CodeConfig indicates the client is misconfigured for the requested
	// operation (e.g. a write call without a signer).
	CodeConfig = "CONFIG_ERROR"

	// CodePayment indicates a payment could not be quoted or settled.
	CodePayment = "PAYMENT_ERROR"

	// CodePaymentRequired indicates a paywalled resource was requested
	// without acceptable payment proof.
	CodePaymentRequired = "PAYMENT_REQUIRED"

	// CodeUnsupportedCurrency indicates the currency is not in the catalog.
	CodeUnsupportedCurrency = "UNSUPPORTED_CURRENCY"

	// CodeUnsupportedNetwork indicates the network name is not in the catalog.
	CodeUnsupportedNetwork = "UNSUPPORTED_NETWORK"

	// CodeStorage indicates a storage backend upload or download failed.
	CodeStorage = "STORAGE_ERROR"

	// CodeNoBackend indicates no storage backend is available.
	CodeNoBackend = "NO_STORAGE_BACKEND"

	// CodeContract indicates an on-chain call failed or a transaction
	// receipt was missing an expected event.
	CodeContract = "CONTRACT_ERROR"

	// CodeIntegrity indicates process-integrity verification failed
	// (unregistered function or execution exception).
	CodeIntegrity = "INTEGRITY_ERROR"
)

// codeToHTTPStatus maps error codes to HTTP status codes.
var codeToHTTPStatus = map[string]int{
	CodeUnknown:             500,
	CodeValidation:          400,
	CodeNotFound:            404,
	CodeUnauthorized:        401,
	CodeInternal:            500,
	CodeTimeout:             504,
	CodeServiceUnavailable:  503,
	CodeConfig:              500,
	CodePayment:             402,
	CodePaymentRequired:     402,
	CodeUnsupportedCurrency: 400,
	CodeUnsupportedNetwork:  400,
	CodeStorage:             502,
	CodeNoBackend:           503,
	CodeContract:            502,
	CodeIntegrity:           500,
}

// HTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func HTTPStatus(code string) int {
	if status, ok := codeToHTTPStatus[code]; ok {
		return status
	}
	return 500
}
