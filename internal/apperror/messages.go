package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Wallet/provider errors
	CodeProviderUnavailable: "No wallet provider detected",
	CodeNoAccount:           "Cannot retrieve an account. Please refresh the browser",
	CodeAccountsFetchFailed: "Failed to list wallet accounts",

	// Network errors
	CodeChainIDFetchFailed: "Cannot retrieve a network. Please refresh the browser",
	CodeUnknownNetwork:     "Connected network is not recognized",
	CodeNetworkUnsupported: "Connected network is not supported",

	// Contract errors
	CodeContractCallFailed: "Marketplace contract call failed",
	CodeContractNotBound:   "Marketplace contract is not bound",
	CodeTransactionFailed:  "Transaction submission failed",
	CodeTransactionRevert:  "Transaction reverted",
	CodeReceiptTimeout:     "Timed out waiting for transaction receipt",

	// Catalog errors
	CodeCatalogFetchFailed: "Failed to load course catalog",
	CodeCatalogInvalid:     "Course catalog data is invalid",

	// Course/ownership errors
	CodeCourseNotFound:  "Course not found",
	CodeUnknownState:    "Ledger returned an unrecognized course state",
	CodeInvalidCourseID: "Course id does not fit the ledger key encoding",
	CodeInvalidHash:     "Value is not a valid course hash",
	CodeAdminOnly:       "Operation requires an admin account",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
