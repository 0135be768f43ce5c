package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/identity"
)

func TestTranslateUser(t *testing.T) {
	in := identity.Input{
		Username: "alice",
		Groups:   []string{"system:authenticated", "devs"},
	}
	principal, groups := identity.Translate(in)

	assert.Equal(t, identity.TypeUser, principal.UID.Type)
	assert.Equal(t, "alice", principal.UID.ID)
	assert.Equal(t, cedarval.String("alice"), principal.Attrs["name"])
	require.Len(t, groups, 2)

	var parentIDs, groupIDs []string
	for _, p := range principal.Parents {
		parentIDs = append(parentIDs, p.ID)
	}
	for _, g := range groups {
		groupIDs = append(groupIDs, g.UID.ID)
		assert.Equal(t, identity.TypeGroup, g.UID.Type)
	}
	assert.ElementsMatch(t, groupIDs, parentIDs, "principal parent set must equal group entity ids")
}

func TestTranslateNode(t *testing.T) {
	principal, _ := identity.Translate(identity.Input{Username: "system:node:worker-1"})
	assert.Equal(t, identity.TypeNode, principal.UID.Type)
	assert.Equal(t, cedarval.String("worker-1"), principal.Attrs["name"])
}

func TestTranslateNodeRequiresExactlyTwoColons(t *testing.T) {
	// an extra colon means this is not a node identity; it falls through to User.
	principal, _ := identity.Translate(identity.Input{Username: "system:node:worker:1"})
	assert.Equal(t, identity.TypeUser, principal.UID.Type)
}

func TestTranslateServiceAccount(t *testing.T) {
	principal, _ := identity.Translate(identity.Input{Username: "system:serviceaccount:kube-system:default"})
	assert.Equal(t, identity.TypeServiceAccount, principal.UID.Type)
	assert.Equal(t, cedarval.String("kube-system"), principal.Attrs["namespace"])
	assert.Equal(t, cedarval.String("default"), principal.Attrs["name"])
}

func TestTranslateMissingUsername(t *testing.T) {
	principal, _ := identity.Translate(identity.Input{})
	assert.Equal(t, "anonymous", principal.UID.ID)
}

func TestTranslateUIDDefaultsToUsername(t *testing.T) {
	principal, _ := identity.Translate(identity.Input{Username: "bob"})
	assert.Equal(t, "bob", principal.UID.ID)

	principal, _ = identity.Translate(identity.Input{Username: "bob", UID: "uid-123"})
	assert.Equal(t, "uid-123", principal.UID.ID)
}

func TestTranslateExtra(t *testing.T) {
	principal, _ := identity.Translate(identity.Input{
		Username: "alice",
		Extra: map[string][]string{
			"scopes": {"read", "write"},
		},
	})
	extra, ok := principal.Attrs["extra"]
	require.True(t, ok)
	require.Equal(t, cedarval.KindSet, extra.Kind)
	require.Len(t, extra.Set, 1)
	rec := extra.Set[0]
	assert.Equal(t, cedarval.String("scopes"), rec.Record["key"])
	assert.Equal(t, cedarval.String("read,write"), rec.Record["values"])
}
