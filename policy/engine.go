// Package policy turns screening signals into the allow/block decision.
package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// ValidatorSignal is the local validator outcome fed into the policy.
type ValidatorSignal struct {
	Matched  bool   `json:"matched"`
	Category string `json:"category"`
}

// CategorySignal is one classifier category fed into the policy, in the
// order the service returned them.
type CategorySignal struct {
	Category string `json:"category"`
	Severity int    `json:"severity"`
}

// Input is the full signal set for one submission.
type Input struct {
	Validator      ValidatorSignal  `json:"validator"`
	Categories     []CategorySignal `json:"categories"`
	ClassifierDown bool             `json:"classifier_down"`
	FailClosed     bool             `json:"fail_closed"`
}

// Decision is the policy verdict.
type Decision struct {
	Blocked  bool   `json:"blocked"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Engine is the rego policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates an Engine from the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.moderation.result"),
		rego.Module("moderation.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the policy over the given signals.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	// Round-trip through JSON so rego sees plain maps and numbers.
	raw, err := json.Marshal(input)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to marshal policy input: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Decision{}, fmt.Errorf("failed to unmarshal policy input: %w", err)
	}
	if doc["categories"] == nil {
		doc["categories"] = []interface{}{}
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The default rule should always produce a result.
		return Decision{}, fmt.Errorf("policy returned no result")
	}

	out, err := json.Marshal(results[0].Expressions[0].Value)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to marshal policy result: %w", err)
	}
	var d Decision
	if err := json.Unmarshal(out, &d); err != nil {
		return Decision{}, fmt.Errorf("unexpected policy result shape: %w", err)
	}
	return d, nil
}

// DefaultPolicy is the reference decision policy: a validator pattern hit
// blocks with its category; otherwise the first classifier category with
// severity above zero blocks; a classifier outage blocks only under the
// fail-closed switch.
const DefaultPolicy = `
package moderation

import rego.v1

default result := {"blocked": false, "category": "", "reason": ""}

flagged := [c | some c in input.categories; c.severity > 0]

result := {"blocked": true, "category": input.validator.category, "reason": "filtro local"} if {
	input.validator.matched
}

result := {"blocked": true, "category": flagged[0].category, "reason": "classificador"} if {
	not input.validator.matched
	count(flagged) > 0
}

result := {"blocked": true, "category": "Indisponível", "reason": "classificador indisponível"} if {
	not input.validator.matched
	count(flagged) == 0
	input.classifier_down
	input.fail_closed
}
`
