package schema

// Base schema type names (spec.md §4.6 "Inputs", grounded on
// original_source/src/schema/k8s.rs).
const (
	UserType           = "User"
	GroupType          = "Group"
	ServiceAccountType = "ServiceAccount"
	NodeType           = "Node"
	ExtraType          = "Extra"
	PrincipalUIDType   = "PrincipalUID"
	NonResourceType    = "NonResource"
	ResourceType       = "Resource"

	extraAttributeType    = "ExtraAttribute"
	fieldRequirementType  = "FieldRequirement"
	labelRequirementType  = "LabelRequirement"
)

// k8sNamespace is the namespace every authorization-side entity and action
// lives in; admissionNamespace nests under it as "k8s::admission".
const (
	k8sNamespace       = "k8s"
	admissionNamespace = "k8s::admission"
	coreV1Namespace    = "core::v1"
)

// authzPrincipalTypes lists every principal type an authorization action
// may apply to (spec.md §3 Principal kinds).
var authzPrincipalTypes = []string{UserType, GroupType, ServiceAccountType, NodeType}

// resourceOnlyVerbs only ever address a Resource (never a NonResource URL).
var resourceOnlyVerbs = []string{
	"list", "watch", "create", "update", "deletecollection",
	"use", "bind", "approve", "sign", "escalate", "attest",
}

// nonResourceOnlyVerbs only ever address a NonResource URL path.
var nonResourceOnlyVerbs = []string{"put", "post", "head", "options"}

// bothVerbs address either a Resource or a NonResource URL, depending on
// which attribute set the request carried.
var bothVerbs = []string{"get", "delete", "patch", "proxy"}

const impersonateVerb = "impersonate"

// BaseSchema builds the static portion of spec.md §4.6's schema: the k8s
// principal/resource entity types, the authorization action set, and the
// admission action set plus the core::v1 connect-option entities.
func BaseSchema() Document {
	doc := Document{
		k8sNamespace: {
			CommonTypes: commonTypes(),
			EntityTypes: entityTypes(),
			Actions:     authorizationActions(),
		},
		admissionNamespace: {
			Actions: admissionActions(),
		},
		coreV1Namespace: {
			EntityTypes: connectOptionEntities(),
		},
	}
	return doc
}

func commonTypes() map[string]Type {
	return map[string]Type{
		extraAttributeType: record(map[string]Attribute{
			"key":    required(str()),
			"values": required(set(str())),
		}),
		fieldRequirementType: record(map[string]Attribute{
			"field":    required(str()),
			"operator": required(str()),
			"value":    required(str()),
		}),
		labelRequirementType: record(map[string]Attribute{
			"key":      required(str()),
			"operator": required(str()),
			"values":   required(set(str())),
		}),
	}
}

func entityTypes() map[string]Entity {
	extraSet := optional(set(entityOrCommon(extraAttributeType)))

	return map[string]Entity{
		UserType: {
			Shape:         &Type{Type: "Record", Attributes: map[string]Attribute{"name": required(str()), "extra": extraSet}},
			MemberOfTypes: []string{GroupType},
		},
		GroupType: {
			Shape: &Type{Type: "Record", Attributes: map[string]Attribute{"name": required(str())}},
		},
		ServiceAccountType: {
			Shape: &Type{Type: "Record", Attributes: map[string]Attribute{
				"name": required(str()), "namespace": required(str()), "extra": extraSet,
			}},
			MemberOfTypes: []string{GroupType},
		},
		NodeType: {
			Shape:         &Type{Type: "Record", Attributes: map[string]Attribute{"name": required(str()), "extra": extraSet}},
			MemberOfTypes: []string{GroupType},
		},
		ExtraType: {
			Shape: &Type{Type: "Record", Attributes: map[string]Attribute{"key": required(str()), "value": optional(str())}},
		},
		PrincipalUIDType: {
			Shape: &Type{Type: "Record", Attributes: map[string]Attribute{}},
		},
		NonResourceType: {
			Shape: &Type{Type: "Record", Attributes: map[string]Attribute{"path": required(str())}},
		},
		ResourceType: {
			Shape: &Type{Type: "Record", Attributes: map[string]Attribute{
				"apiGroup":      required(str()),
				"resource":      required(str()),
				"namespace":     optional(str()),
				"name":          optional(str()),
				"subresource":   optional(str()),
				"fieldSelector": optional(set(entityOrCommon(fieldRequirementType))),
				"labelSelector": optional(set(entityOrCommon(labelRequirementType))),
			}},
		},
	}
}

// authorizationActions builds one action per verb, with resourceTypes split
// by whether the verb can address a Resource, a NonResource URL, or both
// (spec.md §4.6, grounded on k8s.rs get_authorization_actions), plus
// impersonate wired to the full principal-kind set.
func authorizationActions() map[string]Action {
	actions := map[string]Action{}

	for _, v := range resourceOnlyVerbs {
		actions[v] = verbAction([]string{ResourceType})
	}
	for _, v := range nonResourceOnlyVerbs {
		actions[v] = verbAction([]string{NonResourceType})
	}
	for _, v := range bothVerbs {
		actions[v] = verbAction([]string{ResourceType, NonResourceType})
	}

	actions[impersonateVerb] = Action{
		AppliesTo: &AppliesTo{
			PrincipalTypes: authzPrincipalTypes,
			ResourceTypes:  []string{ExtraType, GroupType, NodeType, PrincipalUIDType, ServiceAccountType, UserType},
			Context:        &Type{Type: "Record", Attributes: map[string]Attribute{}},
		},
	}

	return actions
}

func verbAction(resourceTypes []string) Action {
	return Action{
		AppliesTo: &AppliesTo{
			PrincipalTypes: authzPrincipalTypes,
			ResourceTypes:  resourceTypes,
			Context:        &Type{Type: "Record", Attributes: map[string]Attribute{}},
		},
	}
}

// admissionActions builds the connect/create/update/delete/all action
// hierarchy under k8s::admission (spec.md §4.6 "Verb wiring"). The
// all/create/update/delete resource types start empty here and are populated
// per-entity by the verb wiring pass over the OpenAPI-derived entity types;
// connect starts with the fixed core::v1 connect-option types.
func admissionActions() map[string]Action {
	allRef := []ActionRef{{ID: "all"}}
	return map[string]Action{
		"all": {
			AppliesTo: &AppliesTo{
				PrincipalTypes: qualify(k8sNamespace, authzPrincipalTypes),
				ResourceTypes:  []string{},
				Context:        &Type{Type: "Record", Attributes: map[string]Attribute{}},
			},
		},
		"create": {
			AppliesTo: &AppliesTo{PrincipalTypes: qualify(k8sNamespace, authzPrincipalTypes), ResourceTypes: []string{}, Context: &Type{Type: "Record", Attributes: map[string]Attribute{}}},
			MemberOf:  allRef,
		},
		"update": {
			AppliesTo: &AppliesTo{PrincipalTypes: qualify(k8sNamespace, authzPrincipalTypes), ResourceTypes: []string{}, Context: &Type{Type: "Record", Attributes: map[string]Attribute{}}},
			MemberOf:  allRef,
		},
		"delete": {
			AppliesTo: &AppliesTo{PrincipalTypes: qualify(k8sNamespace, authzPrincipalTypes), ResourceTypes: []string{}, Context: &Type{Type: "Record", Attributes: map[string]Attribute{}}},
			MemberOf:  allRef,
		},
		"connect": {
			AppliesTo: &AppliesTo{
				PrincipalTypes: qualify(k8sNamespace, authzPrincipalTypes),
				ResourceTypes:  connectResourceTypes(),
				Context:        &Type{Type: "Record", Attributes: map[string]Attribute{}},
			},
			MemberOf: allRef,
		},
	}
}

func qualify(namespace string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = namespace + "::" + n
	}
	return out
}

// connectOptionEntities are the fixed set of connect-eligible shapes
// (spec.md §4.6 "Verb wiring", grounded on k8s.rs add_connect_entities).
func connectOptionEntities() map[string]Entity {
	proxyShape := &Type{Type: "Record", Attributes: map[string]Attribute{
		"kind":       required(str()),
		"apiVersion": required(str()),
		"path":       required(str()),
	}}
	entities := map[string]Entity{
		"NodeProxyOptions":    {Shape: proxyShape},
		"PodProxyOptions":     {Shape: proxyShape},
		"ServiceProxyOptions": {Shape: proxyShape},
		"PodPortForwardOptions": {Shape: &Type{Type: "Record", Attributes: map[string]Attribute{
			"kind":       required(str()),
			"apiVersion": required(str()),
			"ports":      optional(set(str())),
		}}},
	}
	execShape := &Type{Type: "Record", Attributes: map[string]Attribute{
		"kind":       required(str()),
		"apiVersion": required(str()),
		"stdin":      required(boolean()),
		"stdout":     required(boolean()),
		"stderr":     required(boolean()),
		"tty":        required(boolean()),
		"container":  required(str()),
		"command":    required(set(str())),
	}}
	entities["PodExecOptions"] = Entity{Shape: execShape}
	entities["PodAttachOptions"] = Entity{Shape: execShape}
	return entities
}

func connectResourceTypes() []string {
	names := []string{"NodeProxyOptions", "PodProxyOptions", "ServiceProxyOptions", "PodPortForwardOptions", "PodExecOptions", "PodAttachOptions"}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = coreV1Namespace + "::" + n
	}
	return out
}
