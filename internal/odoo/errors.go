package odoo

import (
	"errors"
	"fmt"
	"strings"
)

// ConnectionError means the ERP endpoint could not be reached or answered with a non-RPC response.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach Odoo at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError means the ERP rejected the configured credentials.
type AuthenticationError struct {
	Database string
	Username string
	Reason   string
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("authentication failed for user %q on database %q", e.Username, e.Database)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// RPCError is a fault raised by the ERP while executing a call (unknown model, access rights,
// validation, missing record...).
type RPCError struct {
	Code    int
	Name    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("odoo error (%s): %s", shortExceptionName(e.Name), e.Message)
	}
	return fmt.Sprintf("odoo error: %s", e.Message)
}

// IsMissingRecord reports whether the fault is Odoo's MissingError.
func (e *RPCError) IsMissingRecord() bool {
	return strings.HasSuffix(e.Name, "MissingError")
}

// IsAccessError reports whether the fault is an access-rights rejection.
func (e *RPCError) IsAccessError() bool {
	return strings.HasSuffix(e.Name, "AccessError") || strings.HasSuffix(e.Name, "AccessDenied")
}

// IsMissingRecord reports whether err wraps a MissingError fault.
func IsMissingRecord(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.IsMissingRecord()
}

// "odoo.exceptions.AccessError" -> "AccessError"
func shortExceptionName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
