package authzresource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/authzresource"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/identity"
)

func TestTranslateNonResource(t *testing.T) {
	spec := authorizationv1.SubjectAccessReviewSpec{
		NonResourceAttributes: &authorizationv1.NonResourceAttributes{Path: "/healthz", Verb: "get"},
	}
	e, err := authzresource.Translate(spec)
	require.NoError(t, err)
	assert.Equal(t, authzresource.TypeNonResource, e.UID.Type)
	assert.Equal(t, "/healthz", e.UID.ID)
	assert.Equal(t, cedarval.String("/healthz"), e.Attrs["path"])
}

func TestTranslateResource(t *testing.T) {
	spec := authorizationv1.SubjectAccessReviewSpec{
		ResourceAttributes: &authorizationv1.ResourceAttributes{
			Verb: "list", Group: "", Resource: "pods", Namespace: "default",
			LabelSelector: &authorizationv1.LabelSelectorAttributes{
				Requirements: []metav1.LabelSelectorRequirement{
					{Key: "env", Operator: metav1.LabelSelectorOpIn, Values: []string{"prod", "staging"}},
				},
			},
			FieldSelector: &authorizationv1.FieldSelectorAttributes{
				Requirements: []metav1.FieldSelectorRequirement{
					{Key: "status.phase", Operator: "=", Values: []string{"Running"}},
				},
			},
		},
	}
	e, err := authzresource.Translate(spec)
	require.NoError(t, err)
	assert.Equal(t, authzresource.TypeResource, e.UID.Type)
	assert.Equal(t, "pods", e.UID.ID)
	assert.Equal(t, cedarval.String("pods"), e.Attrs["resource"])
	assert.Equal(t, cedarval.String("default"), e.Attrs["namespace"])
	_, hasName := e.Attrs["name"]
	assert.False(t, hasName, "optional fields must be omitted, not empty-stringed")

	labelSel := e.Attrs["labelSelector"]
	require.Len(t, labelSel.Set, 1)
	assert.Equal(t, cedarval.String("env"), labelSel.Set[0].Record["key"])
	assert.Len(t, labelSel.Set[0].Record["values"].Set, 2)

	fieldSel := e.Attrs["fieldSelector"]
	require.Len(t, fieldSel.Set, 1)
	assert.Equal(t, cedarval.String("Running"), fieldSel.Set[0].Record["value"])
}

func TestTranslateResourceRequiresResourceField(t *testing.T) {
	spec := authorizationv1.SubjectAccessReviewSpec{
		ResourceAttributes: &authorizationv1.ResourceAttributes{Verb: "list"},
	}
	_, err := authzresource.Translate(spec)
	assert.Error(t, err)
}

func TestTranslateImpersonateServiceAccount(t *testing.T) {
	spec := authorizationv1.SubjectAccessReviewSpec{
		ResourceAttributes: &authorizationv1.ResourceAttributes{
			Verb: "impersonate", Resource: "serviceaccounts", Namespace: "kube-system", Name: "default",
		},
	}
	e, err := authzresource.Translate(spec)
	require.NoError(t, err)
	assert.Equal(t, identity.TypeServiceAccount, e.UID.Type)
	assert.Equal(t, "system:serviceaccount:kube-system:default", e.UID.ID)
}

func TestTranslateImpersonateUserAsNode(t *testing.T) {
	spec := authorizationv1.SubjectAccessReviewSpec{
		ResourceAttributes: &authorizationv1.ResourceAttributes{
			Verb: "impersonate", Resource: "users", Name: "system:node:worker-1",
		},
	}
	e, err := authzresource.Translate(spec)
	require.NoError(t, err)
	assert.Equal(t, identity.TypeNode, e.UID.Type)
	assert.Equal(t, "system:node:worker-1", e.UID.ID, "id stays the full username")
	assert.Equal(t, cedarval.String("worker-1"), e.Attrs["name"])
}

func TestTranslateImpersonateUnknownKind(t *testing.T) {
	spec := authorizationv1.SubjectAccessReviewSpec{
		ResourceAttributes: &authorizationv1.ResourceAttributes{Verb: "impersonate", Resource: "bogus"},
	}
	_, err := authzresource.Translate(spec)
	assert.Error(t, err)
}
