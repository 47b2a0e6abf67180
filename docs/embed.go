package docs

import (
	_ "embed"
)

// SystemPrompt embeds the speech agent's instructions: role, language, tool usage and
// confirmation rules for write operations
//
//go:embed prompts/system_prompt.md
var SystemPrompt string

// GreetingPrompt is the opening line the agent speaks when a session starts
//
//go:embed prompts/greeting.md
var GreetingPrompt string
