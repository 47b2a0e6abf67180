// Package system implements the server, database and company tools.
package system

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/odoo"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

// DatabaseInfo is the get_database_info result.
type DatabaseInfo struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	ServerSerie      string `json:"server_serie"`
	ProtocolVersion  int    `json:"protocol_version"`
	Endpoint         string `json:"endpoint"`
	InstalledModules int64  `json:"installed_modules"`
}

// GetDatabaseInfoHandler returns a handler function for the get_database_info tool
func GetDatabaseInfoHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, _ tools.Arguments) (any, error) {
		version, err := deps.Odoo.Version(ctx)
		if err != nil {
			slog.Error("failed to query server version", "error", err)
			return nil, err
		}

		installed, err := deps.Odoo.Count(ctx, "ir.module.module", odoo.Domain{odoo.Cond("state", "=", "installed")})
		if err != nil {
			slog.Error("failed to count installed modules", "error", err)
			return nil, err
		}

		return DatabaseInfo{
			Name:             deps.Odoo.DatabaseName(),
			Version:          version.ServerVersion,
			ServerSerie:      version.ServerSerie,
			ProtocolVersion:  version.ProtocolVersion,
			Endpoint:         deps.Odoo.Endpoint(),
			InstalledModules: installed,
		}, nil
	}
}

var companyFields = []string{
	"name", "street", "street2", "zip", "city", "state_id", "country_id",
	"currency_id", "email", "phone", "website", "vat",
}

// CompanyInfo is the get_company_info result. Empty values are null.
type CompanyInfo struct {
	Name     any `json:"name"`
	Address  any `json:"address"`
	Currency any `json:"currency"`
	Email    any `json:"email"`
	Phone    any `json:"phone"`
	Website  any `json:"website"`
	VAT      any `json:"vat"`
}

// GetCompanyInfoHandler returns a handler function for the get_company_info tool
func GetCompanyInfoHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, _ tools.Arguments) (any, error) {
		records, err := deps.Odoo.SearchRead(ctx, "res.company", odoo.Domain{}, odoo.SearchOptions{
			Fields: companyFields,
			Limit:  1,
			Order:  "id asc",
		})
		if err != nil {
			slog.Error("failed to read company", "error", err)
			return nil, err
		}
		if len(records) == 0 {
			return nil, &tools.NotFoundError{Entity: "company"}
		}

		c := tools.NormalizeRecord(records[0], companyFields)
		return CompanyInfo{
			Name:     c["name"],
			Address:  formatAddress(c),
			Currency: c["currency_id"],
			Email:    c["email"],
			Phone:    c["phone"],
			Website:  c["website"],
			VAT:      c["vat"],
		}, nil
	}
}

// formatAddress joins the non-empty address parts: "street, street2, zip city, state, country".
func formatAddress(c map[string]any) any {
	str := func(key string) string {
		s, _ := c[key].(string)
		return strings.TrimSpace(s)
	}

	parts := make([]string, 0, 5)
	for _, p := range []string{
		str("street"),
		str("street2"),
		strings.TrimSpace(str("zip") + " " + str("city")),
		str("state_id"),
		str("country_id"),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, ", ")
}

// Status is the check_odoo_status result. Unreachable is a status, not a failure.
type Status struct {
	Reachable     bool   `json:"reachable"`
	Authenticated bool   `json:"authenticated"`
	Version       string `json:"version,omitempty"`
	Endpoint      string `json:"endpoint"`
	Database      string `json:"database"`
	Detail        string `json:"detail,omitempty"`
}

// CheckOdooStatusHandler returns a handler function for the check_odoo_status tool
func CheckOdooStatusHandler(deps *tools.ToolDependencies) tools.Handler {
	return func(ctx context.Context, _ tools.Arguments) (any, error) {
		status := Status{Endpoint: deps.Odoo.Endpoint(), Database: deps.Odoo.DatabaseName()}

		version, err := deps.Odoo.Version(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			slog.Warn("odoo is not reachable", "endpoint", status.Endpoint, "error", err)
			status.Detail = err.Error()
			return status, nil
		}
		status.Reachable = true
		status.Version = version.ServerVersion

		if _, err := deps.Odoo.Connect(ctx); err != nil {
			status.Detail = err.Error()
			return status, nil
		}
		status.Authenticated = true
		return status, nil
	}
}
