package types

import "encoding/json"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error object.
type RPCError struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData holds structured error detail.
type ErrorData struct {
	ErrorType string `json:"error_type"`
	Retryable bool   `json:"retryable"`
	Detail    string `json:"detail"`
}

// InitializeParams holds parameters for the initialize method.
type InitializeParams struct {
	ClientName      string `json:"client_name"`
	ClientVersion   string `json:"client_version"`
	ProtocolVersion int    `json:"protocol_version"`
}

// InitializeResult holds the result of the initialize method.
type InitializeResult struct {
	EngineVersion   string   `json:"engine_version"`
	ProtocolVersion int      `json:"protocol_version"`
	Capabilities    []string `json:"capabilities"`
	DatasetRecords  int      `json:"dataset_records"`
}

// EvaluateBatchParams holds parameters for the evaluate_batch method.
// Outcomes uses the expected-outcomes file format: an array of single-key
// mappings from hypothesis id to expected result rows.
type EvaluateBatchParams struct {
	Queries   []GeneratedQuery `json:"queries"`
	Outcomes  json.RawMessage  `json:"outcomes,omitempty"`
	Iteration int              `json:"iteration,omitempty"`
}

// EvaluateBatchResult holds the result of the evaluate_batch method.
type EvaluateBatchResult struct {
	Report EvaluationReport `json:"report"`
}

// ShutdownResult holds the result of the shutdown method.
type ShutdownResult struct {
	SessionsCompleted   int `json:"sessions_completed"`
	HypothesesEvaluated int `json:"hypotheses_evaluated"`
}
