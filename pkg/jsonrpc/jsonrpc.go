// Package jsonrpc holds the wire envelope spoken between a generated proxy
// and the service.
//
// Outbound calls are JSON-RPC 2.0 requests with positional params and an
// integer id:
//
//	{"jsonrpc":"2.0","method":"vray.start","params":[],"id":7}
//
// Inbound traffic on the persistent channel is either a response correlated
// by id or a bare event notification:
//
//	{"name":"vray.progress","data":{"done":0.5}}
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Version is the JSON-RPC protocol version carried by every message.
const Version = "2.0"

// Control methods understood by every service.
const (
	MethodSubscribe   = "rpc.on"
	MethodUnsubscribe = "rpc.off"
)

// Common errors returned by the parser.
var (
	ErrInvalidJSON    = errors.New("jsonrpc: invalid JSON")
	ErrInvalidVersion = errors.New("jsonrpc: version must be 2.0")
	ErrMissingMethod  = errors.New("jsonrpc: missing method field")
	ErrInvalidID      = errors.New("jsonrpc: invalid id type")
)

// JSON-RPC 2.0 error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Message is a JSON-RPC 2.0 request, notification or response.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Event is a server-pushed notification re-emitted by the proxy under Name.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MessageType indicates the kind of an inbound frame.
type MessageType int

const (
	// TypeUnknown indicates an unparseable or invalid message
	TypeUnknown MessageType = iota
	// TypeRequest indicates a request expecting a response
	TypeRequest
	// TypeNotification indicates a notification (no response expected)
	TypeNotification
	// TypeResponse indicates a response to a previous request
	TypeResponse
	// TypeEvent indicates a {name, data} event
	TypeEvent
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeNotification:
		return "notification"
	case TypeResponse:
		return "response"
	case TypeEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Type returns the message type based on which fields are present.
func (m *Message) Type() MessageType {
	hasMethod := m.Method != ""
	hasID := len(m.ID) > 0 && string(m.ID) != "null"
	hasResult := len(m.Result) > 0
	hasError := m.Error != nil

	if hasResult || hasError {
		return TypeResponse
	}
	if hasMethod && hasID {
		return TypeRequest
	}
	if hasMethod && !hasID {
		return TypeNotification
	}
	if hasID {
		// {"jsonrpc":"2.0","id":1} with a null result is still a response
		return TypeResponse
	}
	return TypeUnknown
}

// IntID returns the request id as an unsigned integer.
func (m *Message) IntID() (uint64, error) {
	if len(m.ID) == 0 {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseUint(string(bytes.TrimSpace(m.ID)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, m.ID)
	}
	return id, nil
}

// NewRequest builds a request with positional params. A nil params slice is
// sent as an empty array.
func NewRequest(method string, params []any, id uint64) (*Message, error) {
	if method == "" {
		return nil, ErrMissingMethod
	}
	if params == nil {
		params = []any{}
	}
	p, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	return &Message{
		JSONRPC: Version,
		Method:  method,
		Params:  p,
		ID:      json.RawMessage(strconv.FormatUint(id, 10)),
	}, nil
}

// NewResponse creates a success response for id.
func NewResponse(id json.RawMessage, result any) (*Message, error) {
	r, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &Message{JSONRPC: Version, ID: id, Result: r}, nil
}

// NewErrorResponse creates an error response for id.
func NewErrorResponse(id json.RawMessage, code int, message string) *Message {
	return &Message{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

// Serialize converts a Message to JSON bytes.
func Serialize(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Parse parses a JSON-RPC message, validating its version.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if msg.JSONRPC != Version {
		return nil, ErrInvalidVersion
	}
	if msg.Type() == TypeUnknown {
		return nil, ErrMissingMethod
	}
	return &msg, nil
}

// Frame is one decoded inbound frame: exactly one of Message and Event is set.
type Frame struct {
	Message *Message
	Event   *Event
}

// Type reports the kind of the frame.
func (f Frame) Type() MessageType {
	if f.Event != nil {
		return TypeEvent
	}
	if f.Message != nil {
		return f.Message.Type()
	}
	return TypeUnknown
}

// ParseFrame decodes an inbound frame from the persistent channel. Objects
// without a "jsonrpc" member but with a "name" are events.
func ParseFrame(data []byte) (Frame, error) {
	var probe struct {
		JSONRPC *string `json:"jsonrpc"`
		Name    *string `json:"name"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if probe.JSONRPC == nil && probe.Name != nil {
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			return Frame{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return Frame{Event: &evt}, nil
	}
	msg, err := Parse(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Message: msg}, nil
}
