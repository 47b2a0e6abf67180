package tools

import (
	"embed"
)

// ConfigFiles embeds all YAML guidance tool definitions from the config subdirectory
//
//go:embed all:config
var ConfigFiles embed.FS

// ModelAllowlist is the default set of models search_records may query.
// ODOO_ALLOWLIST_FILE replaces it at runtime.
//
//go:embed models/allowlist.yaml
var ModelAllowlist []byte
