package naming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/naming"
)

func TestTypeName(t *testing.T) {
	tests := []struct {
		name string
		gvk  schema.GroupVersionKind
		want string
	}{
		{"core", schema.GroupVersionKind{Group: "", Version: "v1", Kind: "Pod"}, "core::v1::Pod"},
		{"apps", schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, "apps::v1::Deployment"},
		{
			"multi-segment group",
			schema.GroupVersionKind{Group: "cedar.k8s.aws", Version: "v1alpha1", Kind: "Policy"},
			"aws::k8s::cedar::v1alpha1::Policy",
		},
		{
			"hyphenated group",
			schema.GroupVersionKind{Group: "my-domain.my-company.com", Version: "v1", Kind: "Resource"},
			"com::my_company::my_domain::v1::Resource",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.TypeName(tt.gvk))
		})
	}
}

func TestGVKRoundTrip(t *testing.T) {
	gvks := []schema.GroupVersionKind{
		{Group: "", Version: "v1", Kind: "Pod"},
		{Group: "apps", Version: "v1", Kind: "Deployment"},
		{Group: "cedar.k8s.aws", Version: "v1alpha1", Kind: "Policy"},
	}
	for _, gvk := range gvks {
		typeName := naming.TypeName(gvk)
		got, err := naming.GVK(typeName)
		require.NoError(t, err)
		assert.Equal(t, gvk, got)
		assert.Equal(t, typeName, naming.TypeName(got), "TypeName(GVK(name)) must equal name")
	}
}

func TestRESTPath(t *testing.T) {
	tests := []struct {
		name                                                        string
		group, version, resource, namespace, resName, subResource   string
		want                                                        string
	}{
		{"core namespaced with name", "", "v1", "pods", "default", "foo", "", "/api/v1/namespaces/default/pods/foo"},
		{"grouped cluster scoped", "apps", "v1", "deployments", "", "", "", "/apis/apps/v1/deployments"},
		{"with subresource", "", "v1", "pods", "default", "foo", "status", "/api/v1/namespaces/default/pods/foo/status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := naming.RESTPath(tt.group, tt.version, tt.resource, tt.namespace, tt.resName, tt.subResource)
			assert.Equal(t, tt.want, got)
		})
	}
}
