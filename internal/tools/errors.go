package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
)

// Kind classifies a failed tool call for callers that branch on it.
type Kind string

const (
	KindConnection     Kind = "connection"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindOperation      Kind = "operation"
	KindValidation     Kind = "validation"
	KindUnknownTool    Kind = "unknown_tool"
	KindCancelled      Kind = "cancelled"
)

// ValidationError is malformed caller input, including disallowed model names.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// NotFoundError is a lookup that matched no ERP record.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("no %s found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// OperationError is an ERP-side rejection detected by the tool itself.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// UnknownToolError is a dispatch to a name that is not in the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Classify maps any error returned below the gateway to its Kind.
func Classify(err error) Kind {
	var (
		unknownErr    *UnknownToolError
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		authErr       *odoo.AuthenticationError
		connErr       *odoo.ConnectionError
		rpcErr        *odoo.RPCError
	)

	switch {
	case errors.As(err, &unknownErr):
		return KindUnknownTool
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.As(err, &authErr):
		return KindAuthentication
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &rpcErr):
		if rpcErr.IsMissingRecord() {
			return KindNotFound
		}
		return KindOperation
	default:
		return KindOperation
	}
}
