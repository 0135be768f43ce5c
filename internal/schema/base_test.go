package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSchemaHasPrincipalAndResourceEntities(t *testing.T) {
	doc := BaseSchema()
	k8s, ok := doc[k8sNamespace]
	require.True(t, ok)

	for _, name := range []string{UserType, GroupType, ServiceAccountType, NodeType, ResourceType, NonResourceType} {
		assert.Contains(t, k8s.EntityTypes, name)
	}
}

func TestBaseSchemaVerbDispatchIsExhaustive(t *testing.T) {
	doc := BaseSchema()
	k8s := doc[k8sNamespace]

	for _, v := range resourceOnlyVerbs {
		action, ok := k8s.Actions[v]
		require.Truef(t, ok, "missing action %q", v)
		assert.Equal(t, []string{ResourceType}, action.AppliesTo.ResourceTypes)
	}
	for _, v := range nonResourceOnlyVerbs {
		action := k8s.Actions[v]
		assert.Equal(t, []string{NonResourceType}, action.AppliesTo.ResourceTypes)
	}
	for _, v := range bothVerbs {
		action := k8s.Actions[v]
		assert.ElementsMatch(t, []string{ResourceType, NonResourceType}, action.AppliesTo.ResourceTypes)
	}
}

func TestBaseSchemaAdmissionActionsStartEmpty(t *testing.T) {
	doc := BaseSchema()
	admission := doc[admissionNamespace]
	for _, name := range []string{"all", "create", "update", "delete", "connect"} {
		action, ok := admission.Actions[name]
		require.True(t, ok)
		if name == "connect" {
			assert.NotEmpty(t, action.AppliesTo.ResourceTypes)
			continue
		}
		assert.Empty(t, action.AppliesTo.ResourceTypes)
	}
}
