// Package schema implements the schema generator (spec.md §4.6): a static
// base schema plus an OpenAPI v3 -> Cedar JSON schema converter, producing
// the typed metadata the policy engine uses for principal/action/resource
// shapes and for /validate's type-checking.
package schema

// Document is a full Cedar JSON schema: one entry per namespace.
type Document map[string]Namespace

// Namespace is one Cedar namespace's common types, entity types, and
// actions.
type Namespace struct {
	CommonTypes map[string]Type   `json:"commonTypes,omitempty"`
	EntityTypes map[string]Entity `json:"entityTypes,omitempty"`
	Actions     map[string]Action `json:"actions,omitempty"`
}

// Type is a Cedar type expression: primitive, Set, Record, Entity
// reference, or extension (ipaddr/decimal). Exactly the fields relevant to
// Type are populated.
type Type struct {
	Type                 string               `json:"type"`
	Name                 string               `json:"name,omitempty"`     // Entity / EntityOrCommon / Extension
	Element              *Type                `json:"element,omitempty"`  // Set
	Attributes           map[string]Attribute `json:"attributes,omitempty"` // Record
}

// Attribute is a Record member: a Type plus its required-ness.
type Attribute struct {
	Type
	Required bool `json:"required"`
}

// Entity is a Cedar entity type declaration.
type Entity struct {
	Shape         *Type    `json:"shape,omitempty"`
	MemberOfTypes []string `json:"memberOfTypes,omitempty"`
}

// Action is a Cedar action declaration.
type Action struct {
	AppliesTo *AppliesTo  `json:"appliesTo,omitempty"`
	MemberOf  []ActionRef `json:"memberOf,omitempty"`
}

// AppliesTo constrains an action's valid principal/resource/context shapes.
type AppliesTo struct {
	PrincipalTypes []string `json:"principalTypes,omitempty"`
	ResourceTypes  []string `json:"resourceTypes,omitempty"`
	Context        *Type    `json:"context,omitempty"`
}

// ActionRef names a parent action, optionally namespace-qualified.
type ActionRef struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

func str() Type                       { return Type{Type: "String"} }
func long() Type                      { return Type{Type: "Long"} }
func boolean() Type                   { return Type{Type: "Boolean"} }
func set(element Type) Type           { return Type{Type: "Set", Element: &element} }
func record(attrs map[string]Attribute) Type {
	return Type{Type: "Record", Attributes: attrs}
}
func entityRef(name string) Type          { return Type{Type: "Entity", Name: name} }
func entityOrCommon(name string) Type     { return Type{Type: "EntityOrCommon", Name: name} }
func extension(name string) Type          { return Type{Type: "Extension", Name: name} }
func required(t Type) Attribute           { return Attribute{Type: t, Required: true} }
func optional(t Type) Attribute           { return Attribute{Type: t, Required: false} }
