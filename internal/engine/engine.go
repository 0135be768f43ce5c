// Package engine is the sole boundary between this module's
// engine-independent cedarval representation and the real policy engine,
// github.com/cedar-policy/cedar-go. Every other package manipulates
// cedarval values; only engine and policystore import cedar-go directly.
package engine

import (
	"fmt"

	cedar "github.com/cedar-policy/cedar-go"
	"github.com/cedar-policy/cedar-go/types"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
)

// Decision mirrors cedar-go's Allow/Deny outcome without leaking its type
// into callers that only need to branch on it.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionDeny
)

// Response is the outcome of one policy-set evaluation plus enough
// diagnostics for the tiered store's "silent deny" rule (spec.md §4.5).
type Response struct {
	Decision    Decision
	ReasonCount int
	ErrorCount  int
}

// IsSilentDeny reports a Deny with zero reasons and zero errors, the
// "no opinion" signal tiers use to fall through to the next store.
func (r Response) IsSilentDeny() bool {
	return r.Decision == DecisionDeny && r.ReasonCount == 0 && r.ErrorCount == 0
}

// ParsePolicySet parses Cedar policy text into a policy set, the shape
// DirectoryStore and StaticStore both ultimately hold.
func ParsePolicySet(name string, src []byte) (*cedar.PolicySet, error) {
	ps, err := cedar.NewPolicySetFromBytes(name, src)
	if err != nil {
		return nil, fmt.Errorf("engine: parsing policy set %s: %w", name, err)
	}
	return ps, nil
}

// ParseSchema parses a Cedar schema document (JSON schema format), the form
// the schema generator (internal/schema) emits and /validate type-checks
// against.
func ParseSchema(src []byte) (*cedar.Schema, error) {
	schema, err := cedar.NewSchemaFromJSON(src)
	if err != nil {
		return nil, fmt.Errorf("engine: parsing schema: %w", err)
	}
	return schema, nil
}

// ValidationMode mirrors Cedar's validation strictness levels.
type ValidationMode int

const (
	ValidationPermissive ValidationMode = iota
	ValidationStrict
	ValidationPartial
)

// ValidationResult carries the type-checker's findings (spec.md §4.7,
// "Validation warnings become warnings[] ...; validation errors become a
// denial with a comma-joined message").
type ValidationResult struct {
	Warnings []string
	Errors   []string
}

// Validate type-checks ps against schema in the given mode. Syntax errors
// are caught earlier by ParsePolicySet; this only reports type errors.
func Validate(ps *cedar.PolicySet, schema *cedar.Schema, mode ValidationMode) ValidationResult {
	opts := cedar.ValidationSettings{Mode: toCedarMode(mode)}
	report := cedar.Validate(schema, ps, opts)

	result := ValidationResult{}
	for _, e := range report.Errors {
		result.Errors = append(result.Errors, e.String())
	}
	for _, w := range report.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	return result
}

func toCedarMode(mode ValidationMode) cedar.ValidationMode {
	switch mode {
	case ValidationStrict:
		return cedar.ValidationStrict
	case ValidationPartial:
		return cedar.ValidationPartial
	default:
		return cedar.ValidationPermissive
	}
}

// IsAuthorized evaluates req against ps over the supplied entity set.
func IsAuthorized(entities *cedarval.EntitySet, req cedarval.Request, ps *cedar.PolicySet) Response {
	authorizer := cedar.NewAuthorizer()
	cedarReq := types.Request{
		Principal: toUID(req.Principal),
		Action:    toUID(req.Action),
		Resource:  toUID(req.Resource),
		Context:   types.Record{},
	}
	decision, diagnostic := authorizer.IsAuthorized(toEntityMap(entities), ps, cedarReq)

	resp := Response{ErrorCount: len(diagnostic.Errors)}
	if decision == types.Allow {
		resp.Decision = DecisionAllow
	} else {
		resp.Decision = DecisionDeny
	}
	for range diagnostic.Reasons {
		resp.ReasonCount++
	}
	return resp
}

func toEntityMap(set *cedarval.EntitySet) types.EntityMap {
	em := types.EntityMap{}
	for _, e := range set.All() {
		uid := toUID(e.UID)
		em[uid] = types.Entity{
			UID:        uid,
			Attributes: toRecord(e.Attrs),
			Parents:    toUIDSet(e.Parents),
		}
	}
	return em
}

func toUID(u cedarval.EntityUID) types.EntityUID {
	return types.NewEntityUID(types.EntityType(u.Type), types.String(u.ID))
}

func toUIDSet(uids []cedarval.EntityUID) types.EntityUIDSet {
	set := types.NewEntityUIDSet()
	for _, u := range uids {
		set = set.Add(toUID(u))
	}
	return set
}

func toRecord(attrs map[string]cedarval.Value) types.Record {
	rec := types.Record{}
	for k, v := range attrs {
		rec[types.String(k)] = toValue(v)
	}
	return rec
}

func toValue(v cedarval.Value) types.Value {
	switch v.Kind {
	case cedarval.KindString:
		return types.String(v.Str)
	case cedarval.KindLong:
		return types.Long(v.Long)
	case cedarval.KindDecimal:
		d, err := types.ParseDecimal(v.Str)
		if err != nil {
			return types.String(v.Str)
		}
		return d
	case cedarval.KindBoolean:
		return types.Boolean(v.Bool)
	case cedarval.KindIPAddr:
		ip, err := types.ParseIPAddr(v.Str)
		if err != nil {
			return types.String(v.Str)
		}
		return ip
	case cedarval.KindSet:
		set := make(types.Set, 0, len(v.Set))
		for _, e := range v.Set {
			set = append(set, toValue(e))
		}
		return set
	case cedarval.KindRecord:
		return toRecord(v.Record)
	case cedarval.KindEntityRef:
		return toUID(v.Entity)
	default:
		return types.String("")
	}
}
