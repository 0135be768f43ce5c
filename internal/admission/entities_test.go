package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	admissionv1 "k8s.io/api/admission/v1"
	authenticationv1 "k8s.io/api/authentication/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

func podRequest(op admissionv1.Operation, oldJSON, newJSON string) *admissionv1.AdmissionRequest {
	return &admissionv1.AdmissionRequest{
		UID:       "u-1",
		Operation: op,
		Kind:      metav1.GroupVersionKind{Group: "", Version: "v1", Kind: "Pod"},
		Resource:  metav1.GroupVersionResource{Group: "", Version: "v1", Resource: "pods"},
		Namespace: "default",
		Name:      "foo",
		UserInfo:  authenticationv1.UserInfo{Username: "alice"},
		Object:    runtime.RawExtension{Raw: []byte(newJSON)},
		OldObject: runtime.RawExtension{Raw: []byte(oldJSON)},
	}
}

func TestBuildEntitiesAndRequestUpdate(t *testing.T) {
	req := podRequest(admissionv1.Update,
		`{"apiVersion":"v1","kind":"Pod","spec":{"nodeName":"old-node"}}`,
		`{"apiVersion":"v1","kind":"Pod","spec":{"nodeName":"new-node"}}`,
	)

	entities, out, err := BuildEntitiesAndRequest(req)
	require.NoError(t, err)

	assert.Equal(t, "core::v1::Pod", out.Resource.Type)
	assert.Equal(t, "/api/v1/namespaces/default/pods/foo", out.Resource.ID)
	assert.Equal(t, ActionUpdate, out.Action.ID)

	newEntity, ok := entities.Get(out.Resource)
	require.True(t, ok)
	oldRef := newEntity.Attrs["oldObject"]
	require.Equal(t, "core::v1::Pod", oldRef.Entity.Type)
	assert.Equal(t, "u-1", oldRef.Entity.ID, "oldObject must reference the uid-keyed entity actually in the entity set")

	oldEntity, ok := entities.Get(oldRef.Entity)
	require.True(t, ok, "the referenced old entity must be present in the entity set")
	assert.Equal(t, "old-node", oldEntity.Attrs["spec"].Record["nodeName"].Str)
	assert.Equal(t, "new-node", newEntity.Attrs["spec"].Record["nodeName"].Str)
}

func TestBuildEntitiesAndRequestDelete(t *testing.T) {
	req := podRequest(admissionv1.Delete, `{"apiVersion":"v1","kind":"Pod"}`, "")
	entities, out, err := BuildEntitiesAndRequest(req)
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, out.Action.ID)
	_, ok := entities.Get(out.Resource)
	assert.True(t, ok)
}

func TestBuildEntitiesAndRequestCreate(t *testing.T) {
	req := podRequest(admissionv1.Create, "", `{"apiVersion":"v1","kind":"Pod"}`)
	entities, out, err := BuildEntitiesAndRequest(req)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, out.Action.ID)
	assert.Equal(t, 2, entities.Len(), "principal + resource, no groups")
}
