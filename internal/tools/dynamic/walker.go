package dynamic

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// WalkConfigDirectory loads the YAML tool definitions in embedded. When embedded is nil or holds
// none, configDir on disk is read instead; a missing directory yields no tools.
func WalkConfigDirectory(embedded fs.FS, configDir string) ([]*ToolConfig, error) {
	if embedded != nil {
		configs, err := walkFS(embedded)
		if err != nil {
			return nil, fmt.Errorf("embedded tool configs: %w", err)
		}
		if len(configs) > 0 {
			slog.Info("loaded tools from embedded filesystem", "count", len(configs))
			return configs, nil
		}
	}

	if configDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(configDir); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config directory does not exist", "dir", configDir)
		return nil, nil
	}
	configs, err := walkFS(os.DirFS(configDir))
	if err != nil {
		return nil, fmt.Errorf("tool configs in %s: %w", configDir, err)
	}
	return configs, nil
}

// walkFS parses every .yaml/.yml file under fsys. Tool names must be unique.
func walkFS(fsys fs.FS) ([]*ToolConfig, error) {
	var configs []*ToolConfig
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(d.Name()) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		config, err := parseToolConfig(data, p)
		if err != nil {
			slog.Error("failed to parse tool config", "path", p, "error", err)
			return err
		}
		if prev, dup := seen[config.Name]; dup {
			return fmt.Errorf("tool %q defined in both %s and %s", config.Name, prev, p)
		}
		seen[config.Name] = p

		configs = append(configs, config)
		slog.Debug("loaded tool config", "tool", config.Name, "category", config.Category, "path", p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// parseToolConfig decodes one definition and checks it.
func parseToolConfig(data []byte, p string) (*ToolConfig, error) {
	var config ToolConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", p, err)
	}
	config.Category = categoryFromPath(p)

	if config.Name == "" {
		return nil, fmt.Errorf("tool name is required in config file: %s", p)
	}
	if config.Description == "" {
		return nil, fmt.Errorf("tool description is required in config file: %s", p)
	}
	if err := validateParameters(config.Parameters); err != nil {
		return nil, fmt.Errorf("invalid parameters in %s: %w", p, err)
	}
	if err := validatePatterns(&config); err != nil {
		return nil, fmt.Errorf("invalid error patterns in %s: %w", p, err)
	}
	return &config, nil
}

// validateParameters validates parameter definitions
func validateParameters(params []ParameterConfig) error {
	validTypes := map[string]bool{
		"string": true, "integer": true, "number": true,
		"boolean": true, "array": true, "object": true,
	}
	names := make(map[string]bool)

	for i, param := range params {
		if param.Name == "" {
			return fmt.Errorf("parameter[%d] name is required", i)
		}

		if names[param.Name] {
			return fmt.Errorf("duplicate parameter name '%s'", param.Name)
		}
		names[param.Name] = true

		if param.Type != "" && !validTypes[param.Type] {
			return fmt.Errorf("parameter '%s' has invalid type '%s'", param.Name, param.Type)
		}
	}

	return nil
}

// validatePatterns checks that patterns have a match string and that the matched
// parameter is a declared string parameter
func validatePatterns(config *ToolConfig) error {
	for i, p := range config.ErrorPatterns {
		if strings.TrimSpace(p.Match) == "" {
			return fmt.Errorf("pattern[%d] match is required", i)
		}
		if p.Cause == "" {
			return fmt.Errorf("pattern '%s' has no cause", p.Match)
		}
	}

	if config.MatchParameter == "" {
		if len(config.ErrorPatterns) > 0 {
			return fmt.Errorf("match_parameter is required when error_patterns are set")
		}
		return nil
	}
	for _, param := range config.Parameters {
		if param.Name == config.MatchParameter {
			if param.Type != "" && param.Type != "string" {
				return fmt.Errorf("match_parameter '%s' must be a string", param.Name)
			}
			return nil
		}
	}
	return fmt.Errorf("match_parameter '%s' is not a declared parameter", config.MatchParameter)
}

// categoryFromPath names the category after the first directory below an optional "config" root:
// "config/support/analyze-error.yaml" and "support/analyze-error.yaml" are both "support".
// Files at the root are "general".
func categoryFromPath(p string) string {
	dir := path.Dir(p)
	parts := strings.Split(dir, "/")
	if len(parts) > 0 && parts[0] == "config" {
		parts = parts[1:]
	}
	if len(parts) == 0 || parts[0] == "" || parts[0] == "." {
		return "general"
	}
	return parts[0]
}
