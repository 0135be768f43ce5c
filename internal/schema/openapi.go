package schema

import (
	"strings"

	kubeopenapispec "k8s.io/kube-openapi/pkg/validation/spec"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/fieldrules"
)

func fieldruleKey(group, version, kind, field string) fieldrules.GVKField {
	return fieldrules.GVKField{Group: group, Version: version, Kind: kind, Field: field}
}

// mapFieldCommonType reports the meta::v1 common type a map-field table hit
// emits a Set of (spec.md §4.6 "Fields in the hard-coded string-map table
// emit a Set of KeyValue; ... string-slice-map table emit a Set of
// KeyValueStringSlice").
func mapFieldCommonType(key fieldrules.GVKField) (string, bool) {
	if fieldrules.StringMapFields[key] {
		return metaV1Namespace + "::KeyValue", true
	}
	if fieldrules.StringSliceMapFields[key] {
		return metaV1Namespace + "::KeyValueStringSlice", true
	}
	return "", false
}

// gvk identifies the Kubernetes type an OpenAPI component schema describes.
type gvk struct {
	Group, Version, Kind string
}

// parseSchemaName implements spec.md §4.6's traversal filter: component
// names that parse as io.k8s.api.<group>.<version>.<kind> (or the
// apimachinery.pkg.apis.meta / CRD variants); io.k8s.kube-aggregator.…
// names are skipped outright.
func parseSchemaName(name string) (gvk, bool) {
	if strings.HasPrefix(name, "io.k8s.kube-aggregator.") {
		return gvk{}, false
	}

	switch {
	case strings.HasPrefix(name, "io.k8s.api."):
		return splitTrailing(strings.TrimPrefix(name, "io.k8s.api."), "")
	case strings.HasPrefix(name, "io.k8s.apimachinery.pkg.apis.meta."):
		return splitTrailingFixedGroup(strings.TrimPrefix(name, "io.k8s.apimachinery.pkg.apis.meta."), "meta")
	case strings.HasPrefix(name, "io.k8s."):
		// Other io.k8s.* component families (apiextensions-apiserver, etc.)
		// follow the same <group>.<version>.<kind> tail shape.
		return splitTrailing(strings.TrimPrefix(name, "io.k8s."), "")
	default:
		// CRD schemas: "<group>.<version>.<kind>".
		return splitTrailing(name, "")
	}
}

func splitTrailing(rest, _ string) (gvk, bool) {
	parts := strings.Split(rest, ".")
	if len(parts) < 2 {
		return gvk{}, false
	}
	kind := parts[len(parts)-1]
	version := parts[len(parts)-2]
	group := strings.Join(parts[:len(parts)-2], ".")
	if group == "core" {
		group = ""
	}
	return gvk{Group: group, Version: version, Kind: kind}, true
}

func splitTrailingFixedGroup(rest, group string) (gvk, bool) {
	parts := strings.Split(rest, ".")
	if len(parts) < 2 {
		return gvk{}, false
	}
	kind := parts[len(parts)-1]
	version := parts[len(parts)-2]
	return gvk{Group: group, Version: version, Kind: kind}, true
}

// skippedKinds are dropped unconditionally (spec.md §4.6).
var skippedKinds = map[string]bool{"Time": true, "MicroTime": true}

// isListShape implements spec.md §4.6 "List detection".
func isListShape(s *kubeopenapispec.Schema) bool {
	return hasStringProp(s, "apiVersion") && hasStringProp(s, "kind") && refSuffix(s, "metadata") == "ListMeta"
}

// isEntityShape implements spec.md §4.6 "Entity detection".
func isEntityShape(s *kubeopenapispec.Schema) bool {
	return hasStringProp(s, "apiVersion") && hasStringProp(s, "kind") && refSuffix(s, "metadata") == "ObjectMeta"
}

func hasStringProp(s *kubeopenapispec.Schema, name string) bool {
	p, ok := s.Properties[name]
	return ok && len(p.Type) == 1 && p.Type[0] == "string"
}

func refSuffix(s *kubeopenapispec.Schema, propName string) string {
	p, ok := s.Properties[propName]
	if !ok {
		return ""
	}
	ref := p.Ref.String()
	if ref == "" {
		return ""
	}
	parts := strings.Split(ref, ".")
	return parts[len(parts)-1]
}

// converter walks one OpenAPI v3 document's component schemas into Cedar
// entity/common types for a single (group, version) (spec.md §4.6).
type converter struct {
	schemas map[string]*kubeopenapispec.Schema // by full component name
	byName  map[string]gvk                     // component name -> parsed gvk, filtered to this group/version
	group   string
	version string
}

// newConverter filters schemas down to the ones belonging to group/version
// (the traversal's "whose version matches the one being processed" rule).
func newConverter(schemas map[string]*kubeopenapispec.Schema, group, version string) *converter {
	c := &converter{schemas: schemas, byName: map[string]gvk{}, group: group, version: version}
	for name := range schemas {
		parsed, ok := parseSchemaName(name)
		if !ok {
			continue
		}
		if skippedKinds[parsed.Kind] {
			continue
		}
		if parsed.Group != group || parsed.Version != version {
			continue
		}
		c.byName[name] = parsed
	}
	return c
}

// convertResult is one (group, version) worth of emitted types, keyed by
// component name so the verb-wiring pass can look entities up by Kind.
type convertResult struct {
	entityTypes map[string]Entity // Kind -> Entity
	commonTypes map[string]Type   // Kind -> Type
}

// Convert runs spec.md §4.6's traversal over every matching component
// schema.
func (c *converter) Convert() convertResult {
	result := convertResult{entityTypes: map[string]Entity{}, commonTypes: map[string]Type{}}

	for name, parsed := range c.byName {
		s := c.schemas[name]
		if s == nil {
			continue
		}

		if len(s.Type) == 1 && s.Type[0] == "string" {
			result.commonTypes[parsed.Kind] = str()
			continue
		}

		if len(s.Type) != 0 && s.Type[0] != "object" {
			continue
		}
		if len(s.Properties) == 0 {
			continue
		}

		if isListShape(s) {
			continue
		}

		shape := c.walkObject(s, parsed.Kind)
		if isEntityShape(s) {
			result.entityTypes[parsed.Kind] = Entity{Shape: &shape}
		} else {
			result.commonTypes[parsed.Kind] = shape
		}
	}

	return result
}

// walkObject converts an object schema's properties into a Cedar Record
// (spec.md §4.6 traversal rules). kind is the enclosing OpenAPI component's
// Kind, used to look fields up in the shared fieldrules map-field table
// (spec.md §9's "single declarative data structure", also consulted by
// internal/admission's runtime walker).
func (c *converter) walkObject(s *kubeopenapispec.Schema, kind string) Type {
	attrs := make(map[string]Attribute, len(s.Properties))
	requiredSet := map[string]bool{}
	for _, r := range s.Required {
		requiredSet[r] = true
	}

	for name, prop := range s.Properties {
		prop := prop

		if name == "labels" || name == "annotations" {
			attrs[name] = optional(set(entityOrCommon(metaV1Namespace + "::KeyValue")))
			continue
		}
		key := fieldruleKey(c.group, c.version, kind, name)
		if fieldMapKind, ok := mapFieldCommonType(key); ok {
			attrs[name] = optional(set(entityOrCommon(fieldMapKind)))
			continue
		}

		t, ok := c.walkProperty(name, &prop, kind)
		if !ok {
			continue
		}
		attrs[name] = Attribute{Type: t, Required: requiredSet[name]}
	}

	return record(attrs)
}

// walkProperty dispatches on one property's shape (spec.md §4.6 bullet
// list). Map-field special cases (string-map / string-slice-map) are
// applied by the caller (internal/admission mirrors the same table for the
// runtime walker); here they simply emit Set<KeyValue...> uniformly since
// the schema only needs the static type, not per-instance data.
func (c *converter) walkProperty(name string, p *kubeopenapispec.Schema, kind string) (Type, bool) {
	switch {
	case len(p.Type) == 1 && (p.Type[0] == "string" || p.Type[0] == "integer" || p.Type[0] == "boolean"):
		return primitiveType(p.Type[0]), true

	case len(p.Type) == 1 && p.Type[0] == "array":
		return c.walkArray(kind, p)

	case len(p.AllOf) == 1:
		return c.walkAllOfRef(p.AllOf[0]), true

	case p.Ref.String() != "":
		return c.walkRef(p.Ref.String()), true

	case len(p.Type) == 1 && p.Type[0] == "object" && len(p.Properties) > 0:
		return c.walkObject(p, kind), true

	case len(p.Type) == 1 && p.Type[0] == "object" && p.AdditionalProperties != nil && p.AdditionalProperties.Schema != nil:
		if kind := refKind(p.AdditionalProperties.Schema.Ref.String()); kind == "Quantity" || kind == "Time" {
			return str(), true
		}
		return Type{}, false

	default:
		return Type{}, false
	}
}

func primitiveType(t string) Type {
	switch t {
	case "integer":
		return long()
	case "boolean":
		return boolean()
	default:
		return str()
	}
}

// walkArray implements "array with typed items -> Set of that primitive;
// with allOf:[{$ref}] items -> Set of referenced type; a self-referencing
// $ref -> Set of strings" (spec.md §4.6).
func (c *converter) walkArray(kind string, p *kubeopenapispec.Schema) (Type, bool) {
	if p.Items == nil || p.Items.Schema == nil {
		return Type{}, false
	}
	items := p.Items.Schema

	if len(items.Type) == 1 && (items.Type[0] == "string" || items.Type[0] == "integer" || items.Type[0] == "boolean") {
		return set(primitiveType(items.Type[0])), true
	}
	if len(items.AllOf) == 1 {
		return set(c.walkAllOfRef(items.AllOf[0])), true
	}
	if ref := items.Ref.String(); ref != "" {
		if refKind(ref) == kind {
			return set(str()), true
		}
		return set(c.walkRef(ref)), true
	}
	return Type{}, false
}

// walkAllOfRef resolves an "allOf:[{$ref}]" property to either a named
// Entity reference (when the referenced schema is itself an entity) or a
// typed Record (spec.md §4.6).
func (c *converter) walkAllOfRef(ref kubeopenapispec.Schema) Type {
	refName := ref.Ref.String()
	if refName == "" {
		return record(nil)
	}
	return c.walkRef(refName)
}

func (c *converter) walkRef(ref string) Type {
	kind := refKind(ref)
	if target, ok := c.schemas[refComponentName(ref)]; ok && isEntityShape(target) {
		return entityRef(kind)
	}
	return entityOrCommon(kind)
}

func refKind(ref string) string {
	if ref == "" {
		return ""
	}
	parts := strings.Split(refComponentName(ref), ".")
	return parts[len(parts)-1]
}

func refComponentName(ref string) string {
	const prefix = "#/components/schemas/"
	return strings.TrimPrefix(ref, prefix)
}
