// Package bridge connects the assistant to an external banking backend over
// line-delimited JSON-RPC 2.0 on the stdin/stdout of a spawned process.
package bridge

import (
	"context"
	"encoding/json"
)

const jsonRPCVersion = "2.0"

// Transport abstracts the communication channel for JSON-RPC messages.
type Transport interface {
	// Send sends a JSON-RPC request and returns the raw response.
	Send(ctx context.Context, msg *Request) (*Response, error)
	// Close shuts down the transport.
	Close() error
}

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}
