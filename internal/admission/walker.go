// Package admission implements the admission resource walker (spec.md §4.3):
// turning an arbitrary Kubernetes object's JSON tree into a typed attribute
// record, and the update/delete/connect wiring described in spec.md §4.3
// and §8 scenario 4.
package admission

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/fieldrules"
)

// ipFields is the set of field names whose string value is lifted to an IP
// literal rather than a plain string (spec.md §4.3 per-node rules).
var ipFields = map[string]bool{
	"podIP": true, "clusterIP": true, "loadBalancerIP": true,
	"hostIP": true, "ip": true, "podIPs": true, "hostIPs": true,
}

// topLevelSkipFields are envelope fields already reflected in the entity's
// type name / request metadata and are not walked into attributes.
// "types" mirrors original_source's DynamicObject wrapper; "apiVersion" and
// "kind" are its Go-native equivalent for a plain decoded object.
var topLevelSkipFields = map[string]bool{
	"types": true, "apiVersion": true, "kind": true,
}

// transitionFor is internal/fieldrules.TransitionFor, local alias kept so
// walker.go reads the same as before the table moved to its own package.
func transitionFor(group, version, kind, field string) (fieldrules.GVKField, bool) {
	return fieldrules.TransitionFor(group, version, kind, field)
}

// walkContext is the (group, version, kind) of the struct currently being
// walked; it only changes at the few transitions named above.
type walkContext struct {
	Group, Version, Kind string
}

// MaxDepthError is returned when a JSON tree exceeds constants.MaxWalkDepth.
type MaxDepthError struct{}

func (MaxDepthError) Error() string { return "admission: max depth reached" }

// WalkObject turns a decoded top-level Kubernetes object into an attribute
// record, skipping the envelope fields already reflected elsewhere
// (spec.md §4.3 "UID construction").
func WalkObject(ctx walkContext, obj map[string]interface{}) (map[string]cedarval.Value, error) {
	attrs := make(map[string]cedarval.Value, len(obj))
	for k, v := range obj {
		if topLevelSkipFields[k] {
			continue
		}
		val, err := walkValue(ctx, constants.MaxWalkDepth, k, v)
		if err != nil {
			return nil, err
		}
		attrs[k] = val
	}
	return attrs, nil
}

// walkValue implements the per-node rules in spec.md §4.3.
func walkValue(ctx walkContext, depth int, fieldName string, value interface{}) (cedarval.Value, error) {
	if depth <= 0 {
		return cedarval.Value{}, MaxDepthError{}
	}

	switch v := value.(type) {
	case nil:
		return cedarval.String(""), nil
	case bool:
		return cedarval.Bool(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return cedarval.Long(n), nil
		}
		return cedarval.Decimal(v.String()), nil
	case string:
		if ipFields[fieldName] {
			return cedarval.IPAddr(v), nil
		}
		return cedarval.String(v), nil
	case []interface{}:
		elems := make([]cedarval.Value, 0, len(v))
		childCtx := ctx
		if t, ok := transitionFor(ctx.Group, ctx.Version, ctx.Kind, fieldName); ok {
			childCtx = walkContext{t.Group, t.Version, t.Kind}
		}
		for _, e := range v {
			ev, err := walkValue(childCtx, depth-1, fieldName, e)
			if err != nil {
				return cedarval.Value{}, err
			}
			elems = append(elems, ev)
		}
		return cedarval.Set(elems...), nil
	case map[string]interface{}:
		return walkObjectField(ctx, depth, fieldName, v)
	default:
		return cedarval.Value{}, fmt.Errorf("admission: unsupported JSON value type %T for field %q", value, fieldName)
	}
}

func walkObjectField(ctx walkContext, depth int, fieldName string, obj map[string]interface{}) (cedarval.Value, error) {
	if fieldName == "labels" || fieldName == "annotations" {
		return stringMapSet(obj), nil
	}

	key := fieldrules.GVKField{Group: ctx.Group, Version: ctx.Version, Kind: ctx.Kind, Field: fieldName}
	if fieldrules.StringMapFields[key] {
		return stringMapSet(obj), nil
	}
	if fieldrules.StringSliceMapFields[key] {
		return stringSliceMapSet(obj), nil
	}

	childCtx := ctx
	if t, ok := transitionFor(ctx.Group, ctx.Version, ctx.Kind, fieldName); ok {
		childCtx = walkContext{t.Group, t.Version, t.Kind}
	}

	rec := make(map[string]cedarval.Value, len(obj))
	for k, v := range obj {
		val, err := walkValue(childCtx, depth-1, k, v)
		if err != nil {
			return cedarval.Value{}, err
		}
		rec[k] = val
	}
	return cedarval.Record(rec), nil
}

// stringMapSet implements object rule (1)/(2): a set of {key, value}
// records, one per map entry whose value is a string; non-string values
// are dropped.
func stringMapSet(obj map[string]interface{}) cedarval.Value {
	recs := make([]cedarval.Value, 0, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			continue
		}
		recs = append(recs, cedarval.Record(map[string]cedarval.Value{
			"key":   cedarval.String(k),
			"value": cedarval.String(s),
		}))
	}
	return cedarval.Set(recs...)
}

// stringSliceMapSet implements object rule (3): a set of {key, value}
// records where value is a set of strings; non-array entries and non-string
// array elements are dropped.
func stringSliceMapSet(obj map[string]interface{}) cedarval.Value {
	recs := make([]cedarval.Value, 0, len(obj))
	for k, v := range obj {
		arr, ok := v.([]interface{})
		if !ok {
			continue
		}
		vals := make([]cedarval.Value, 0, len(arr))
		for _, e := range arr {
			if s, ok := e.(string); ok {
				vals = append(vals, cedarval.String(s))
			}
		}
		recs = append(recs, cedarval.Record(map[string]cedarval.Value{
			"key":   cedarval.String(k),
			"value": cedarval.Set(vals...),
		}))
	}
	return cedarval.Set(recs...)
}

// DecodeObject decodes raw object JSON the way the walker expects: numbers
// keep their source text via json.Number so integer vs. decimal
// classification matches spec.md §4.3.
func DecodeObject(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("admission: decoding object: %w", err)
	}
	return obj, nil
}
