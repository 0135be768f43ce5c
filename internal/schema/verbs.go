package schema

// VerbSet is the set of HTTP verbs a Kind supports, as reported by its
// APIResourceList entry (spec.md §4.6 "Inputs").
type VerbSet map[string]bool

// wireVerbs implements spec.md §4.6 "Verb wiring" for one (group, version)'s
// entity types: resourceTypes on the create/update/delete/all actions are
// extended, and delete/update-eligible entities gain an "oldObject"
// self-reference attribute.
func wireVerbs(doc Document, namespace string, entities map[string]Entity, verbsByKind map[string]VerbSet) {
	admission := doc[admissionNamespace]
	if admission.Actions == nil {
		admission.Actions = map[string]Action{}
	}

	for kind, entity := range entities {
		qualified := namespace + "::" + kind
		verbs := verbsByKind[kind]

		appendAction(admission.Actions, "all", qualified)

		if verbs["create"] {
			appendAction(admission.Actions, "create", qualified)
		}
		if verbs["update"] || verbs["patch"] {
			appendAction(admission.Actions, "update", qualified)
			entity = withOldObject(entity, qualified)
		}
		if verbs["delete"] || verbs["deletecollection"] {
			appendAction(admission.Actions, "delete", qualified)
			entity = withOldObject(entity, qualified)
		}

		entities[kind] = entity
	}

	doc[admissionNamespace] = admission
}

func appendAction(actions map[string]Action, name, resourceType string) {
	a := actions[name]
	if a.AppliesTo == nil {
		a.AppliesTo = &AppliesTo{}
	}
	a.AppliesTo.ResourceTypes = append(a.AppliesTo.ResourceTypes, resourceType)
	actions[name] = a
}

// withOldObject injects the "oldObject" attribute (spec.md §4.6, §9): a
// reference to the same entity type, carrying the pre-mutation attributes.
func withOldObject(e Entity, qualifiedType string) Entity {
	if e.Shape == nil {
		e.Shape = &Type{Type: "Record", Attributes: map[string]Attribute{}}
	}
	if e.Shape.Attributes == nil {
		e.Shape.Attributes = map[string]Attribute{}
	}
	if _, exists := e.Shape.Attributes["oldObject"]; !exists {
		e.Shape.Attributes["oldObject"] = optional(entityRef(qualifiedType))
	}
	return e
}
