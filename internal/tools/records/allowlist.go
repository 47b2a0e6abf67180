// Package records implements ad-hoc search over an allowlisted set of Odoo models.
package records

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	toolsconfig "github.com/mkd-neo4j/odoo-support-mcp/tools"
	"gopkg.in/yaml.v3"
)

const (
	fallbackDefaultLimit = 50
	fallbackMaxLimit     = 200
)

// ModelPolicy is the per-model part of the allowlist.
type ModelPolicy struct {
	// DefaultFields are returned when the caller does not name any fields.
	DefaultFields []string `yaml:"default_fields"`
	// BooleanFields keep a false value; every other field maps false to null.
	BooleanFields []string `yaml:"boolean_fields,omitempty"`
}

// Allowlist is the set of models search_records may query.
type Allowlist struct {
	DefaultLimit int                    `yaml:"default_limit"`
	MaxLimit     int                    `yaml:"max_limit"`
	Models       map[string]ModelPolicy `yaml:"models"`
}

// LoadAllowlist reads the allowlist from path, or the embedded default when path is empty.
func LoadAllowlist(path string) (*Allowlist, error) {
	data := toolsconfig.ModelAllowlist
	source := "embedded"
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read allowlist %s: %w", path, err)
		}
		source = path
	}

	allow, err := ParseAllowlist(data)
	if err != nil {
		return nil, fmt.Errorf("invalid allowlist (%s): %w", source, err)
	}
	slog.Info("loaded model allowlist", "source", source, "models", len(allow.Models))
	return allow, nil
}

// ParseAllowlist decodes and checks an allowlist document.
func ParseAllowlist(data []byte) (*Allowlist, error) {
	var allow Allowlist
	if err := yaml.Unmarshal(data, &allow); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(allow.Models) == 0 {
		return nil, fmt.Errorf("no models listed")
	}
	if allow.DefaultLimit <= 0 {
		allow.DefaultLimit = fallbackDefaultLimit
	}
	if allow.MaxLimit <= 0 {
		allow.MaxLimit = fallbackMaxLimit
	}
	if allow.DefaultLimit > allow.MaxLimit {
		return nil, fmt.Errorf("default_limit %d exceeds max_limit %d", allow.DefaultLimit, allow.MaxLimit)
	}
	for name, policy := range allow.Models {
		for _, f := range policy.DefaultFields {
			if !validFieldName(f) {
				return nil, fmt.Errorf("model %s: invalid default field %q", name, f)
			}
		}
	}
	return &allow, nil
}

// Policy returns the policy of an allowed model.
func (a *Allowlist) Policy(model string) (ModelPolicy, bool) {
	p, ok := a.Models[model]
	return p, ok
}

// Names returns the allowed models, sorted.
func (a *Allowlist) Names() []string {
	names := make([]string, 0, len(a.Models))
	for name := range a.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
