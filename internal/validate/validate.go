// Package validate implements Policy content validation (spec.md §4.7
// /validate, §6 "Policy CRD"). It is shared by the /validate webhook
// handler and the Policy CRD's CustomValidator (api/v1alpha1), so both
// surfaces apply the exact same rules.
package validate

import (
	"fmt"
	"strings"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/engine"
)

// Mode is the policy-set type-checking strictness requested by
// spec.validation.validationMode.
type Mode string

const (
	ModePermissive Mode = "permissive"
	ModeStrict     Mode = "strict"
	ModePartial    Mode = "partial"
)

func (m Mode) engineMode() engine.ValidationMode {
	switch m {
	case ModeStrict:
		return engine.ValidationStrict
	case ModePartial:
		return engine.ValidationPartial
	default:
		return engine.ValidationPermissive
	}
}

// Result is the outcome of validating one policy's content.
type Result struct {
	Warnings []string
	Denied   bool
	Reason   string
}

// Content parses content as a policy set (mandatory, unconditional syntax
// check) and, when enforced is true, type-checks it against schema in mode.
// Syntax errors always deny; type errors deny only when enforced.
func Content(content string, schema []byte, enforced bool, mode Mode) (Result, error) {
	ps, err := engine.ParsePolicySet("policy", []byte(content))
	if err != nil {
		return Result{Denied: true, Reason: err.Error()}, nil
	}

	if !enforced || len(schema) == 0 {
		return Result{}, nil
	}

	parsedSchema, err := engine.ParseSchema(schema)
	if err != nil {
		return Result{}, fmt.Errorf("validate: loading schema: %w", err)
	}

	report := engine.Validate(ps, parsedSchema, mode.engineMode())
	if len(report.Errors) > 0 {
		return Result{
			Denied: true,
			Reason: strings.Join(report.Errors, ", "),
		}, nil
	}

	return Result{Warnings: report.Warnings}, nil
}
