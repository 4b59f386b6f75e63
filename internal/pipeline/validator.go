package pipeline

import (
	"strings"

	"github.com/lamim/blogforge/pkg/models"
)

// Rule is a single rejection heuristic: a predicate paired with the reason
// reported when it fires. A nil Roles slice applies the rule to every stage.
// Rules run in order; the first match rejects.
type Rule struct {
	Reason  string
	Roles   []models.Role
	Matches func(text string) bool
}

func (r Rule) appliesTo(role models.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, candidate := range r.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// Validator classifies sanitized completions as usable or rejected.
// The upstream generator is not contractually bound to obey its instruction;
// these checks catch the instruction-violation patterns seen in practice.
// They are pattern matching, not semantic validation.
type Validator struct {
	rules []Rule
}

// NewValidator creates a validator with the default rule set
func NewValidator() *Validator {
	return &Validator{rules: DefaultRules()}
}

// NewValidatorWithRules creates a validator with a custom rule set, evaluated
// in the given order
func NewValidatorWithRules(rules []Rule) *Validator {
	return &Validator{rules: rules}
}

// Validate returns (true, "") when the text is usable, or (false, reason)
// naming the first rule that rejected it.
func (v *Validator) Validate(role models.Role, text string) (bool, string) {
	for _, rule := range v.rules {
		if !rule.appliesTo(role) {
			continue
		}
		if rule.Matches(text) {
			return false, rule.Reason
		}
	}
	return true, ""
}

// Conversational filler prefixes indicating meta-commentary instead of content
var fillerPrefixes = []string{
	"okay",
	"awaiting",
	"i will now proceed",
}

// Phrases indicating the researcher discussed its own process rather than
// producing findings
var processPhrases = []string{
	"fact-checking process",
	"visual integration",
}

// DefaultRules returns the rejection heuristics in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{
			Reason:  "empty completion",
			Matches: func(text string) bool { return strings.TrimSpace(text) == "" },
		},
		{
			Reason:  "placeholder output instead of research findings",
			Roles:   []models.Role{models.RoleResearcher},
			Matches: containsPhrase("no research content generated."),
		},
		{
			Reason:  "placeholder output instead of a draft",
			Roles:   []models.Role{models.RoleWriter},
			Matches: containsPhrase("no blog post draft generated."),
		},
		{
			Reason:  "placeholder output instead of a final post",
			Roles:   []models.Role{models.RoleEditor},
			Matches: containsPhrase("no final blog post generated."),
		},
		{
			Reason:  "conversational filler instead of content",
			Matches: hasAnyPrefix(fillerPrefixes),
		},
		{
			Reason:  "process commentary instead of findings",
			Roles:   []models.Role{models.RoleResearcher},
			Matches: containsAnyPhrase(processPhrases),
		},
		{
			Reason:  "refusal to produce content",
			Roles:   []models.Role{models.RoleWriter},
			Matches: hasAnyPrefix([]string{"i cannot create"}),
		},
	}
}

func containsPhrase(phrase string) func(string) bool {
	return containsAnyPhrase([]string{phrase})
}

func containsAnyPhrase(phrases []string) func(string) bool {
	return func(text string) bool {
		lower := strings.ToLower(text)
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
		return false
	}
}

func hasAnyPrefix(prefixes []string) func(string) bool {
	return func(text string) bool {
		lower := strings.ToLower(strings.TrimSpace(text))
		for _, prefix := range prefixes {
			if strings.HasPrefix(lower, prefix) {
				return true
			}
		}
		return false
	}
}
