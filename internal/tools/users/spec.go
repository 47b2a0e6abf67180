package users

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

func ListUsersSpec() mcp.Tool {
	return mcp.NewTool("list_users",
		mcp.WithDescription("List all active Odoo users with their id, name, login and email."),
		mcp.WithTitleAnnotation("List Users"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func GetUserDetailsSpec() mcp.Tool {
	return mcp.NewTool("get_user_details",
		mcp.WithDescription("Get detailed information about a specific user: login, email, active flag, company, partner, language, timezone and groups."),
		tools.WithInteger("user_id", mcp.Required(), mcp.Description("ID of the user"), mcp.Min(1)),
		mcp.WithTitleAnnotation("Get User Details"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func FindUserSpec() mcp.Tool {
	return mcp.NewTool("find_user",
		mcp.WithDescription("Find a user by login or email address. Archived users are included."),
		mcp.WithString("user_identifier", mcp.Required(), mcp.Description("Email or login of the user")),
		mcp.WithTitleAnnotation("Find User"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func CreateUserSpec() mcp.Tool {
	return mcp.NewTool("create_user",
		mcp.WithDescription("Create a new internal Odoo user. Fails if the login is already taken."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Full name of the user")),
		mcp.WithString("login", mcp.Required(), mcp.Description("Login username")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Email address")),
		mcp.WithString("password", mcp.Required(), mcp.Description("Initial password")),
		mcp.WithTitleAnnotation("Create User"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func ResetUserPasswordSpec() mcp.Tool {
	return mcp.NewTool("reset_user_password",
		mcp.WithDescription("Set a new password for a user identified by login or email. Always confirm with the user first."),
		mcp.WithString("user_identifier", mcp.Required(), mcp.Description("Email or login of the user")),
		mcp.WithString("new_password", mcp.Required(), mcp.Description("New password for the user")),
		mcp.WithTitleAnnotation("Reset User Password"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
