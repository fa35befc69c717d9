// Package sanitizer post-processes model output, redacting residual
// sensitive substrings before the text is shown or stored.
package sanitizer

import "regexp"

// Rule is one ordered substitution applied to model output.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultRules is the reference redaction set. Replacements must not
// themselves match any rule, so applying the set twice is a no-op.
var DefaultRules = []Rule{
	{Pattern: regexp.MustCompile(`(?i)\b(bomba|explosivo|hack)\b`), Replacement: "[conteúdo removido]"},
}

// Sanitizer applies an ordered list of pattern substitutions. Deterministic,
// idempotent, no network access.
type Sanitizer struct {
	rules []Rule
}

// New creates a Sanitizer. When rules is empty, DefaultRules is used.
func New(rules ...Rule) *Sanitizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Sanitizer{rules: rules}
}

// Sanitize returns text with every rule applied in order.
func (s *Sanitizer) Sanitize(text string) string {
	out := text
	for _, r := range s.rules {
		out = r.Pattern.ReplaceAllString(out, r.Replacement)
	}
	return out
}
