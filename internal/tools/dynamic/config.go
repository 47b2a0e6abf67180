package dynamic

// ToolConfig represents the YAML configuration for a dynamic tool
type ToolConfig struct {
	// Name is the unique tool identifier (e.g., "analyze_error")
	Name string `yaml:"name"`

	// Description provides the operational description of the tool
	Description string `yaml:"description"`

	// Intent tells the agent WHEN to use this tool
	Intent string `yaml:"intent,omitempty"`

	// Parameters defines typed input parameters
	Parameters []ParameterConfig `yaml:"parameters,omitempty"`

	// MatchParameter names the parameter whose value is matched against ErrorPatterns
	MatchParameter string `yaml:"match_parameter,omitempty"`

	// ErrorPatterns are checked in order; every matching pattern contributes its cause
	ErrorPatterns []PatternConfig `yaml:"error_patterns,omitempty"`

	// Fallback is returned as the only cause when no pattern matches
	Fallback string `yaml:"fallback,omitempty"`

	// Category is derived from the folder structure (e.g., "support")
	// This is an internal field, not from YAML
	Category string `yaml:"-"`
}

// PatternConfig maps a message fragment to a likely cause
type PatternConfig struct {
	// Match is a case-insensitive substring of the error message
	Match string `yaml:"match"`

	// Cause is the suggestion returned when Match is found
	Cause string `yaml:"cause"`
}

// ParameterConfig defines a typed input parameter
type ParameterConfig struct {
	// Name is the parameter identifier
	Name string `yaml:"name"`

	// Type is the JSON Schema type (string, integer, number, boolean, array, object)
	Type string `yaml:"type"`

	// Description explains the parameter's purpose
	Description string `yaml:"description,omitempty"`

	// Default value (type depends on Type field)
	Default interface{} `yaml:"default,omitempty"`

	// Required indicates if this parameter must be provided
	Required bool `yaml:"required,omitempty"`
}
