package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertKeyValueTypes(t *testing.T) {
	doc := Document{}
	insertKeyValueTypes(doc)

	ns, ok := doc[metaV1Namespace]
	require.True(t, ok)
	assert.Contains(t, ns.CommonTypes, "KeyValue")
	assert.Contains(t, ns.CommonTypes, "KeyValueStringSlice")
}

func TestSortActionTypeLists(t *testing.T) {
	doc := Document{
		"k8s": {Actions: map[string]Action{
			"get": {AppliesTo: &AppliesTo{
				PrincipalTypes: []string{"User", "Group", "Extra"},
				ResourceTypes:  []string{"Resource", "NonResource"},
			}},
		}},
	}
	sortActionTypeLists(doc)

	action := doc["k8s"].Actions["get"]
	assert.Equal(t, []string{"Extra", "Group", "User"}, action.AppliesTo.PrincipalTypes)
	assert.Equal(t, []string{"NonResource", "Resource"}, action.AppliesTo.ResourceTypes)
}
