package dynamic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/tools"
)

// Analysis is the result of a pattern-matching tool.
type Analysis struct {
	ErrorMessage string   `json:"error_message"`
	Matched      bool     `json:"matched"`
	Causes       []string `json:"causes"`
}

// NewDynamicHandler creates a handler function for a dynamic tool.
// Tools with error patterns match the input against them; the rest return
// their enriched description as guidance for the model.
func NewDynamicHandler(config *ToolConfig) tools.Handler {
	return func(_ context.Context, args tools.Arguments) (any, error) {
		slog.Info("guidance tool called", "tool", config.Name, "category", config.Category)

		if config.MatchParameter == "" || len(config.ErrorPatterns) == 0 {
			return buildEnrichedDescription(config), nil
		}

		message := args.String(config.MatchParameter)
		if message == "" {
			return nil, &tools.ValidationError{Field: config.MatchParameter, Reason: "must not be empty"}
		}
		return matchPatterns(config, message), nil
	}
}

// matchPatterns returns the cause of every pattern found in message, in config order.
func matchPatterns(config *ToolConfig, message string) Analysis {
	lower := strings.ToLower(message)
	result := Analysis{ErrorMessage: message, Causes: []string{}}
	for _, p := range config.ErrorPatterns {
		if strings.Contains(lower, strings.ToLower(p.Match)) {
			result.Causes = append(result.Causes, p.Cause)
		}
	}

	result.Matched = len(result.Causes) > 0
	if !result.Matched && config.Fallback != "" {
		result.Causes = append(result.Causes, config.Fallback)
	}
	return result
}

// buildEnrichedDescription creates a comprehensive description from all semantic fields
func buildEnrichedDescription(config *ToolConfig) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(config.Description))

	if config.Intent != "" {
		sb.WriteString("\n\n## Intent\n")
		sb.WriteString(strings.TrimSpace(config.Intent))
	}

	if len(config.ErrorPatterns) > 0 {
		sb.WriteString("\n\n## Known Patterns\n")
		for _, p := range config.ErrorPatterns {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", p.Match, p.Cause))
		}
	}

	if len(config.Parameters) > 0 {
		sb.WriteString("\n\n## Parameters\n")
		for _, p := range config.Parameters {
			sb.WriteString(fmt.Sprintf("- `%s` (%s)", p.Name, p.Type))
			if p.Default != nil {
				sb.WriteString(fmt.Sprintf(" [default: %v]", p.Default))
			}
			if p.Description != "" {
				sb.WriteString(fmt.Sprintf(": %s", p.Description))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
