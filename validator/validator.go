// Package validator implements the local input pre-filter. It is a cheap
// substring/regex gate, not a content-safety model: cleverly rephrased
// banned content gets through and benign text containing a banned substring
// gets caught. Both are accepted tradeoffs for a filter that runs before any
// network call.
package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Reason classifies why an input was denied.
type Reason string

const (
	ReasonEmpty   Reason = "empty"
	ReasonTooLong Reason = "too_long"
	ReasonBanned  Reason = "banned_pattern"
)

// Result is the verdict for one input.
type Result struct {
	Allowed  bool
	Reason   Reason
	Category string
}

// Rule pairs a banned-topic pattern with the category reported on a match.
// Patterns are matched against lowercased input.
type Rule struct {
	Category string
	Pattern  *regexp.Regexp
}

// DefaultRules is the reference banned-topic set. Matching is lowercase and
// locale-insensitive; word boundaries are used only where the pattern starts
// and ends with ASCII letters (RE2 \b is ASCII-only).
var DefaultRules = []Rule{
	{Category: "Violência (Filtro Rápido)", Pattern: regexp.MustCompile(`odeio`)},
	{Category: "Violência", Pattern: regexp.MustCompile(`\b(suicid|autoles|matar|assassin|violênc|explosiv|bomba)`)},
	{Category: "Fraude", Pattern: regexp.MustCompile(`\b(hack|phish|fraude|golpe)`)},
	{Category: "Conteúdo Adulto", Pattern: regexp.MustCompile(`\b(porn|sexo explícito|conteúdo adulto)`)},
	{Category: "Ódio", Pattern: regexp.MustCompile(`(ódio|discriminaç|depreciar grupo)`)},
	{Category: "Aconselhamento Médico", Pattern: regexp.MustCompile(`\b(medicament|diagnóstic|posologia)`)},
}

// Validator checks raw user input against length and banned-topic rules.
// It is a pure function over its configuration: no I/O, no side effects.
type Validator struct {
	maxLen int
	rules  []Rule
}

// New creates a Validator. When rules is empty, DefaultRules is used.
func New(maxLen int, rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Validator{maxLen: maxLen, rules: rules}
}

// Validate returns the verdict for text. Denials, in order of checking:
// empty/whitespace-only input, input over the length limit, and the first
// banned-topic rule whose pattern matches the lowercased text.
func (v *Validator) Validate(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Allowed: false, Reason: ReasonEmpty}
	}
	if utf8.RuneCountInString(text) > v.maxLen {
		return Result{Allowed: false, Reason: ReasonTooLong}
	}

	lower := strings.ToLower(text)
	for _, r := range v.rules {
		if r.Pattern.MatchString(lower) {
			return Result{Allowed: false, Reason: ReasonBanned, Category: r.Category}
		}
	}
	return Result{Allowed: true}
}
