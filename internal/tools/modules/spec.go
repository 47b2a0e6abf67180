package modules

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func ListModulesSpec() mcp.Tool {
	return mcp.NewTool("list_modules",
		mcp.WithDescription("List all Odoo modules with their state and version. Optionally filter by state, e.g. only installed modules."),
		mcp.WithString("state",
			mcp.Description("Only return modules in this state"),
			mcp.Enum("installed", "uninstalled", "to install", "to upgrade", "to remove", "uninstallable"),
		),
		mcp.WithTitleAnnotation("List Modules"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func GetModuleInfoSpec() mcp.Tool {
	return mcp.NewTool("get_module_info",
		mcp.WithDescription("Get detailed information about a specific module: title, summary, state, installed and available versions, author, website and license."),
		mcp.WithString("module_name", mcp.Required(), mcp.Description("Technical name of the module, e.g. 'sale_management'")),
		mcp.WithTitleAnnotation("Get Module Info"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func CheckModuleDependenciesSpec() mcp.Tool {
	return mcp.NewTool("check_module_dependencies",
		mcp.WithDescription("List the technical names of the modules a module depends on."),
		mcp.WithString("module_name", mcp.Required(), mcp.Description("Technical name of the module")),
		mcp.WithTitleAnnotation("Check Module Dependencies"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func InstallModuleSpec() mcp.Tool {
	return mcp.NewTool("install_module",
		mcp.WithDescription(`
		Install an Odoo module by technical name.

		Installation runs immediately and may take a while; it also installs missing dependencies.
		Always confirm with the user before calling this tool.`),
		mcp.WithString("module_name", mcp.Required(), mcp.Description("The technical name of the module to install")),
		mcp.WithTitleAnnotation("Install Module"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

func UpgradeModuleSpec() mcp.Tool {
	return mcp.NewTool("upgrade_module",
		mcp.WithDescription(`
		Upgrade an installed Odoo module by technical name.

		The module's data and views are reloaded. Always confirm with the user before calling this tool.`),
		mcp.WithString("module_name", mcp.Required(), mcp.Description("The technical name of the module to upgrade")),
		mcp.WithTitleAnnotation("Upgrade Module"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}
