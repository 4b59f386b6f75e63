// Package sanitize strips framework artifacts from raw completions before
// they reach validation: orchestration banner lines, the TERMINATE sentinel
// some instruction prompts still provoke, and reasoning-model think tags.
package sanitize

import (
	"regexp"
	"strings"
)

// Func is a sanitizer strategy: raw completion text in, cleaned text out.
// Pipelines take a Func so the literal patterns can be swapped without
// touching pipeline logic.
type Func func(string) string

// Precompiled patterns for known non-content artifacts
var (
	// Leading banner line, e.g. ">>>>>>>> USING AUTO REPLY..."
	leadingBannerRegex = regexp.MustCompile(`^\s*>{8} [^\n]*\n`)
	// Trailing banner block through end of text
	trailingBannerRegex = regexp.MustCompile(`(?s)\n\s*>{8} .*$`)
	// Trailing termination sentinel. The word boundary keeps words that
	// merely end in "terminate" (e.g. EXTERMINATE) intact.
	terminateRegex = regexp.MustCompile(`(?i)\s*\bTERMINATE[.!]?\s*$`)
	// Think/reasoning tag blocks emitted by reasoning models
	thinkTagRegex = regexp.MustCompile(`(?i)<think(?:ing)?>[\s\S]*?</think(?:ing)?>`)
)

// Sanitize is the default strategy. It removes leading and trailing banner
// lines, a trailing TERMINATE sentinel, and think-tag blocks, then trims
// surrounding whitespace. It never fails: text without artifacts is returned
// unchanged apart from trimming.
//
// Stripping runs to a fixpoint, so Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	out := raw
	for {
		next := stripOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func stripOnce(s string) string {
	s = leadingBannerRegex.ReplaceAllString(s, "")
	s = trailingBannerRegex.ReplaceAllString(s, "")
	s = thinkTagRegex.ReplaceAllString(s, "")
	s = terminateRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// StripThinkTags removes think-tag blocks only, leaving other text intact.
// Useful when banners should be preserved for debugging.
func StripThinkTags(s string) string {
	return strings.TrimSpace(thinkTagRegex.ReplaceAllString(s, ""))
}

// ContainsThinkTags reports whether the completion carries reasoning blocks
func ContainsThinkTags(s string) bool {
	return thinkTagRegex.MatchString(s)
}
