package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Marketplace-specific error codes
const (
	// Wallet/provider errors
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeNoAccount           Code = "NO_ACCOUNT"
	CodeAccountsFetchFailed Code = "ACCOUNTS_FETCH_FAILED"

	// Network errors
	CodeChainIDFetchFailed Code = "CHAIN_ID_FETCH_FAILED"
	CodeUnknownNetwork     Code = "UNKNOWN_NETWORK"
	CodeNetworkUnsupported Code = "NETWORK_UNSUPPORTED"

	// Contract errors
	CodeContractCallFailed Code = "CONTRACT_CALL_FAILED"
	CodeContractNotBound   Code = "CONTRACT_NOT_BOUND"
	CodeTransactionFailed  Code = "TRANSACTION_FAILED"
	CodeTransactionRevert  Code = "TRANSACTION_REVERTED"
	CodeReceiptTimeout     Code = "RECEIPT_TIMEOUT"

	// Catalog errors
	CodeCatalogFetchFailed Code = "CATALOG_FETCH_FAILED"
	CodeCatalogInvalid     Code = "CATALOG_INVALID"

	// Course/ownership errors
	CodeCourseNotFound  Code = "COURSE_NOT_FOUND"
	CodeUnknownState    Code = "UNKNOWN_COURSE_STATE"
	CodeInvalidCourseID Code = "INVALID_COURSE_ID"
	CodeInvalidHash     Code = "INVALID_COURSE_HASH"
	CodeAdminOnly       Code = "ADMIN_ONLY"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
