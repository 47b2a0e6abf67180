package system

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

func GetDatabaseInfoSpec() mcp.Tool {
	return mcp.NewTool("get_database_info",
		mcp.WithDescription("Get Odoo database and connection information: database name, server version and endpoint."),
		mcp.WithTitleAnnotation("Get Database Info"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func GetCompanyInfoSpec() mcp.Tool {
	return mcp.NewTool("get_company_info",
		mcp.WithDescription("Get the main company's name, address, currency and contact details."),
		mcp.WithTitleAnnotation("Get Company Info"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func CheckOdooStatusSpec() mcp.Tool {
	return mcp.NewTool("check_odoo_status",
		mcp.WithDescription("Check if the Odoo instance is running and accessible, and whether the configured credentials are accepted."),
		mcp.WithTitleAnnotation("Check Odoo Status"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func GetServerLogsSpec() mcp.Tool {
	return mcp.NewTool("get_server_logs",
		mcp.WithDescription("Get the most recent lines of the Odoo server log to help diagnose issues."),
		tools.WithInteger("lines",
			mcp.Description("Number of recent log lines to retrieve (default 50, at most 500)"),
			mcp.Min(1),
		),
		mcp.WithTitleAnnotation("Get Server Logs"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}
