package tx

// Result is an operation result code. Zero is success; positive codes are
// state-dependent refusals (the request was well-formed but the ledger said
// no); negative codes are request or authorization failures that never reach
// the ledger.
type Result int

const (
	Success Result = 0

	// State-dependent refusals (100-199). Nothing was mutated.
	AlreadyExists     Result = 100
	AlreadyConsumed   Result = 101
	QuantityMismatch  Result = 102
	InsufficientFunds Result = 103
	NotFound          Result = 104

	// Request failures.
	NotAuthorized Result = -100
	InvalidInput  Result = -200
	Internal      Result = -500
)

var resultTokens = map[Result]string{
	Success:           "SUCCESS",
	AlreadyExists:     "ALREADY_EXISTS",
	AlreadyConsumed:   "ALREADY_CONSUMED",
	QuantityMismatch:  "QUANTITY_MISMATCH",
	InsufficientFunds: "INSUFFICIENT_FUNDS",
	NotFound:          "NOT_FOUND",
	NotAuthorized:     "NOT_AUTHORIZED",
	InvalidInput:      "INVALID_INPUT",
	Internal:          "INTERNAL",
}

var resultMessages = map[Result]string{
	Success:           "operation applied",
	AlreadyExists:     "a record with this id already exists",
	AlreadyConsumed:   "the certificate has already been consumed",
	QuantityMismatch:  "order amount does not match the certificate amount",
	InsufficientFunds: "insufficient currency balance",
	NotFound:          "referenced record does not exist",
	NotAuthorized:     "caller is not authorized for this operation",
	InvalidInput:      "invalid input",
	Internal:          "internal error",
}

// IsSuccess reports whether the result is Success.
func (r Result) IsSuccess() bool { return r == Success }

// Token returns the stable machine-readable name of the result.
func (r Result) Token() string {
	if token, ok := resultTokens[r]; ok {
		return token
	}
	return "UNKNOWN"
}

// Message returns a human-readable description of the result.
func (r Result) Message() string {
	if msg, ok := resultMessages[r]; ok {
		return msg
	}
	return "unknown result"
}

// String implements fmt.Stringer.
func (r Result) String() string { return r.Token() }

// ApplyResult is what the engine returns for every operation: the code, whether
// the ledger was mutated, and the user-visible status line.
type ApplyResult struct {
	Result  Result
	Applied bool
	Status  string
}
