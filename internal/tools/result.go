package tools

import (
	"encoding/json"
	"fmt"
)

// ErrorPayload is the uniform failure shape. Callers check for the "error" key.
type ErrorPayload struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind"`
}

// Result is the outcome of one tool call: a value or an error payload, never both.
type Result struct {
	Tool  string
	Value any
	Err   *ErrorPayload
}

// Success wraps a handler value.
func Success(tool string, value any) Result {
	return Result{Tool: tool, Value: value}
}

// Failure converts err into the error payload.
func Failure(tool string, err error) Result {
	return Result{Tool: tool, Err: &ErrorPayload{Error: err.Error(), Kind: Classify(err)}}
}

func (r Result) IsError() bool { return r.Err != nil }

// Payload returns what goes on the wire: the value, or the error payload.
func (r Result) Payload() any {
	if r.Err != nil {
		return r.Err
	}
	return r.Value
}

// JSON renders the payload. A value that cannot be encoded becomes an error payload.
func (r Result) JSON() string {
	data, err := json.Marshal(r.Payload())
	if err != nil {
		fallback, _ := json.Marshal(ErrorPayload{
			Error: fmt.Sprintf("failed to encode %s result: %v", r.Tool, err),
			Kind:  KindOperation,
		})
		return string(fallback)
	}
	return string(data)
}
