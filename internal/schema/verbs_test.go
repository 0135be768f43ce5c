package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireVerbsAddsCreateUpdateDelete(t *testing.T) {
	doc := Document{admissionNamespace: {Actions: map[string]Action{
		"all": {AppliesTo: &AppliesTo{}}, "create": {AppliesTo: &AppliesTo{}},
		"update": {AppliesTo: &AppliesTo{}}, "delete": {AppliesTo: &AppliesTo{}},
	}}}
	entities := map[string]Entity{"Pod": {Shape: &Type{Type: "Record", Attributes: map[string]Attribute{}}}}
	verbs := map[string]VerbSet{"Pod": {"create": true, "update": true, "delete": true}}

	wireVerbs(doc, "core::v1", entities, verbs)

	admission := doc[admissionNamespace]
	assert.Contains(t, admission.Actions["all"].AppliesTo.ResourceTypes, "core::v1::Pod")
	assert.Contains(t, admission.Actions["create"].AppliesTo.ResourceTypes, "core::v1::Pod")
	assert.Contains(t, admission.Actions["update"].AppliesTo.ResourceTypes, "core::v1::Pod")
	assert.Contains(t, admission.Actions["delete"].AppliesTo.ResourceTypes, "core::v1::Pod")

	pod := entities["Pod"]
	require.Contains(t, pod.Shape.Attributes, "oldObject")
	assert.Equal(t, "core::v1::Pod", pod.Shape.Attributes["oldObject"].Name)
	assert.False(t, pod.Shape.Attributes["oldObject"].Required)
}

func TestWireVerbsOmitsOldObjectForCreateOnly(t *testing.T) {
	doc := Document{admissionNamespace: {Actions: map[string]Action{
		"all": {AppliesTo: &AppliesTo{}}, "create": {AppliesTo: &AppliesTo{}},
	}}}
	entities := map[string]Entity{"ConfigMap": {Shape: &Type{Type: "Record", Attributes: map[string]Attribute{}}}}
	verbs := map[string]VerbSet{"ConfigMap": {"create": true}}

	wireVerbs(doc, "core::v1", entities, verbs)

	assert.NotContains(t, entities["ConfigMap"].Shape.Attributes, "oldObject")
}
