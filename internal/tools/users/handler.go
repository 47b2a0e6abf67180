// Package users implements the res.users tools.
package users

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

const userModel = "res.users"

var (
	listFields   = []string{"id", "name", "login", "email"}
	detailFields = []string{"id", "name", "login", "email", "active", "company_id", "partner_id", "lang", "tz", "login_date", "groups_id"}
	findFields   = []string{"id", "name", "login", "email", "active", "groups_id"}

	// archived users are still users for a support agent
	includeArchived = map[string]any{"active_test": false}
)

// ListUsersHandler returns a handler function for the list_users tool
func ListUsersHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, _ tools.Arguments) (any, error) {
		records, err := deps.Odoo.SearchRead(ctx, userModel, odoo.Domain{}, odoo.SearchOptions{
			Fields: listFields,
			Order:  "id asc",
		})
		if err != nil {
			slog.Error("failed to list users", "error", err)
			return nil, err
		}
		slog.Info("listed users", "count", len(records))
		return tools.NormalizeRecords(records, listFields), nil
	}
}

// GetUserDetailsHandler returns a handler function for the get_user_details tool
func GetUserDetailsHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		userID, ok := args.Int64("user_id")
		if !ok || userID <= 0 {
			return nil, &tools.ValidationError{Field: "user_id", Reason: "must be a positive integer"}
		}

		records, err := deps.Odoo.SearchRead(ctx, userModel,
			odoo.Domain{odoo.Cond("id", "=", userID)},
			odoo.SearchOptions{Fields: detailFields, Limit: 1, Context: includeArchived})
		if err != nil {
			slog.Error("failed to read user", "user_id", userID, "error", err)
			return nil, err
		}
		if len(records) == 0 {
			return nil, &tools.NotFoundError{Entity: "user", Key: strconv.FormatInt(userID, 10)}
		}
		return tools.NormalizeRecord(records[0], detailFields, "active"), nil
	}
}

// FoundUser is the find_user result.
type FoundUser struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Login      string `json:"login"`
	Email      any    `json:"email"`
	Active     bool   `json:"active"`
	GroupCount int    `json:"group_count"`
}

// FindUserHandler returns a handler function for the find_user tool
func FindUserHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		identifier, err := requireString(args, "user_identifier")
		if err != nil {
			return nil, err
		}

		rec, err := lookupUser(ctx, deps.Odoo, identifier, findFields)
		if err != nil {
			return nil, err
		}

		id, _ := odoo.AsInt64(rec["id"])
		name, _ := rec["name"].(string)
		login, _ := rec["login"].(string)
		active, _ := rec["active"].(bool)
		groups, _ := rec["groups_id"].([]any)
		return FoundUser{
			ID:         id,
			Name:       name,
			Login:      login,
			Email:      tools.NormalizeRecord(rec, []string{"email"})["email"],
			Active:     active,
			GroupCount: len(groups),
		}, nil
	}
}

// CreatedUser is the create_user result.
type CreatedUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
}

// CreateUserHandler returns a handler function for the create_user tool
func CreateUserHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		values := make(map[string]any, 4)
		for _, field := range []string{"name", "login", "email"} {
			v, err := requireString(args, field)
			if err != nil {
				return nil, err
			}
			values[field] = v
		}
		password, err := requirePassword(args, "password")
		if err != nil {
			return nil, err
		}
		values["password"] = password
		if !strings.Contains(values["email"].(string), "@") {
			return nil, &tools.ValidationError{Field: "email", Reason: "must be an email address"}
		}

		login := values["login"].(string)
		existing, err := deps.Odoo.Count(ctx, userModel, odoo.Domain{odoo.Cond("login", "=", login)})
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, &tools.ValidationError{Field: "login", Reason: "is already in use"}
		}

		id, err := deps.Odoo.Create(ctx, userModel, values)
		if err != nil {
			slog.Error("failed to create user", "login", login, "error", err)
			return nil, err
		}
		slog.Info("created user", "login", login, "id", id)
		return CreatedUser{ID: id, Name: values["name"].(string), Login: login}, nil
	}
}

// PasswordReset is the reset_user_password result.
type PasswordReset struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	PasswordReset bool   `json:"password_reset"`
}

// ResetUserPasswordHandler returns a handler function for the reset_user_password tool
func ResetUserPasswordHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, args tools.Arguments) (any, error) {
		identifier, err := requireString(args, "user_identifier")
		if err != nil {
			return nil, err
		}
		password, err := requirePassword(args, "new_password")
		if err != nil {
			return nil, err
		}

		rec, err := lookupUser(ctx, deps.Odoo, identifier, []string{"id", "login"})
		if err != nil {
			return nil, err
		}
		id, _ := odoo.AsInt64(rec["id"])
		login, _ := rec["login"].(string)

		ok, err := deps.Odoo.Write(ctx, userModel, []int64{id}, map[string]any{"password": password})
		if err != nil {
			slog.Error("failed to reset password", "login", login, "error", err)
			return nil, err
		}
		if !ok {
			return nil, &tools.OperationError{Op: "reset_user_password", Err: errors.New("the server did not accept the new password")}
		}
		slog.Info("reset user password", "login", login)
		return PasswordReset{ID: id, Login: login, PasswordReset: true}, nil
	}
}

// lookupUser matches login or email, archived users included.
func lookupUser(ctx context.Context, svc odoo.Service, identifier string, fields []string) (odoo.Record, error) {
	domain := odoo.Domain{"|", odoo.Cond("login", "=", identifier), odoo.Cond("email", "=", identifier)}
	records, err := svc.SearchRead(ctx, userModel, domain, odoo.SearchOptions{
		Fields:  fields,
		Limit:   1,
		Context: includeArchived,
	})
	if err != nil {
		slog.Error("failed to look up user", "user", identifier, "error", err)
		return nil, err
	}
	if len(records) == 0 {
		return nil, &tools.NotFoundError{Entity: "user", Key: identifier}
	}
	return records[0], nil
}

func requireString(args tools.Arguments, name string) (string, error) {
	v := args.String(name)
	if v == "" {
		return "", &tools.ValidationError{Field: name, Reason: "must not be empty"}
	}
	return v, nil
}

// requirePassword keeps surrounding whitespace: it is part of the secret.
func requirePassword(args tools.Arguments, name string) (string, error) {
	v := args.Raw(name)
	if v == "" {
		return "", &tools.ValidationError{Field: name, Reason: "must not be empty"}
	}
	return v, nil
}
