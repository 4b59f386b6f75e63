package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Task templates come from the config file, so they are treated as untrusted
// input: directives that reach into functions or other templates are refused
// before parsing.
var forbiddenDirectives = []string{"{{call", "{{define", "{{template", "{{block"}

// taskVars is what every task template renders against. Topic and Content
// carry the same stage input, so a template may use either name.
type taskVars struct {
	Topic   string
	Content string
}

// RenderTaskMessage renders a role's task template with the stage input: the
// submitted topic for the first stage, the prior stage's accepted output
// afterwards. A reference to any other field fails the render instead of
// expanding to "<no value>".
func RenderTaskMessage(tmpl, input string) (string, error) {
	for _, directive := range forbiddenDirectives {
		if strings.Contains(tmpl, directive) {
			return "", fmt.Errorf("task template contains forbidden directive: %s", directive)
		}
	}

	t, err := template.New("task").
		Option("missingkey=error").
		Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse task template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, taskVars{Topic: input, Content: input}); err != nil {
		return "", fmt.Errorf("failed to render task template: %w", err)
	}

	return buf.String(), nil
}

// TruncateString shortens s to at most maxLen runes for log previews,
// appending an ellipsis when anything was cut. Counting runes keeps
// multi-byte characters intact.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
