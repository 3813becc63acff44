package jsonrpc

import "encoding/json"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// JSON-RPC error codes. The -32000 to -32099 range is for server-defined
// errors.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

func errNotFound(what string) *RPCError {
	return &RPCError{Code: CodeNotFound, Message: what + " not found"}
}

func errInvalidParams(err error) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: "invalid params", Data: err.Error()}
}

// SubmitResult is returned by every transaction method. Result is the stable
// result token; Applied reports whether the ledger was mutated.
type SubmitResult struct {
	Result  string `json:"result"`
	Code    int    `json:"code"`
	Applied bool   `json:"applied"`
	Status  string `json:"status"`
}
