package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
)

func TestIsAuthorizedAllow(t *testing.T) {
	ps, err := ParsePolicySet("test", []byte(`permit(principal == k8s::User::"alice", action, resource);`))
	require.NoError(t, err)

	entities := cedarval.NewEntitySet()
	entities.Add(cedarval.NewEntity(cedarval.EntityUID{Type: "k8s::User", ID: "alice"}))

	req := cedarval.Request{
		Principal: cedarval.EntityUID{Type: "k8s::User", ID: "alice"},
		Action:    cedarval.EntityUID{Type: "k8s::authorization::Action", ID: "get"},
		Resource:  cedarval.EntityUID{Type: "k8s::Resource", ID: "pods/default/web"},
	}

	resp := IsAuthorized(entities, req, ps)

	assert.Equal(t, DecisionAllow, resp.Decision)
	assert.False(t, resp.IsSilentDeny())
}

func TestIsAuthorizedSilentDeny(t *testing.T) {
	ps, err := ParsePolicySet("test", []byte(``))
	require.NoError(t, err)

	entities := cedarval.NewEntitySet()
	req := cedarval.Request{
		Principal: cedarval.EntityUID{Type: "k8s::User", ID: "mallory"},
		Action:    cedarval.EntityUID{Type: "k8s::authorization::Action", ID: "get"},
		Resource:  cedarval.EntityUID{Type: "k8s::Resource", ID: "pods/default/web"},
	}

	resp := IsAuthorized(entities, req, ps)

	assert.Equal(t, DecisionDeny, resp.Decision)
	assert.True(t, resp.IsSilentDeny())
}

func TestIsAuthorizedReasonedDeny(t *testing.T) {
	ps, err := ParsePolicySet("test", []byte(`forbid(principal, action, resource) when { true };`))
	require.NoError(t, err)

	entities := cedarval.NewEntitySet()
	req := cedarval.Request{
		Principal: cedarval.EntityUID{Type: "k8s::User", ID: "mallory"},
		Action:    cedarval.EntityUID{Type: "k8s::authorization::Action", ID: "get"},
		Resource:  cedarval.EntityUID{Type: "k8s::Resource", ID: "pods/default/web"},
	}

	resp := IsAuthorized(entities, req, ps)

	assert.Equal(t, DecisionDeny, resp.Decision)
	assert.False(t, resp.IsSilentDeny())
}

func TestValidateReportsTypeErrors(t *testing.T) {
	schema, err := ParseSchema([]byte(`{"k8s":{"entityTypes":{},"actions":{}}}`))
	require.NoError(t, err)

	ps, err := ParsePolicySet("test", []byte(`permit(principal == k8s::Bogus::"x", action, resource);`))
	require.NoError(t, err)

	result := Validate(ps, schema, ValidationStrict)

	assert.NotEmpty(t, result.Errors)
}
