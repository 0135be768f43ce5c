package admission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
)

func podCtx() walkContext { return walkContext{Group: "", Version: "v1", Kind: "Pod"} }

func TestWalkValueScalars(t *testing.T) {
	v, err := walkValue(podCtx(), 32, "replicas", json.Number("3"))
	require.NoError(t, err)
	assert.Equal(t, cedarval.Long(3), v)

	v, err = walkValue(podCtx(), 32, "cpu", json.Number("1.5"))
	require.NoError(t, err)
	assert.Equal(t, cedarval.Decimal("1.5"), v)

	v, err = walkValue(podCtx(), 32, "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, cedarval.String(""), v)
}

func TestWalkValueIPField(t *testing.T) {
	v, err := walkValue(podCtx(), 32, "podIP", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, cedarval.IPAddr("10.0.0.1"), v)

	v, err = walkValue(podCtx(), 32, "ip", "not-an-ip")
	require.NoError(t, err)
	assert.Equal(t, cedarval.IPAddr("not-an-ip"), v, "field name alone decides the IP lift, per spec.md §4.3")

	v, err = walkValue(podCtx(), 32, "name", "not-an-ip")
	require.NoError(t, err)
	assert.Equal(t, cedarval.String("not-an-ip"), v)
}

func TestWalkValueMaxDepth(t *testing.T) {
	_, err := walkValue(podCtx(), 0, "x", "y")
	assert.ErrorAs(t, err, &MaxDepthError{})
}

func TestWalkObjectLabels(t *testing.T) {
	obj := map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": map[string]interface{}{"a": "b", "c": "d"},
		},
	}
	attrs, err := WalkObject(podCtx(), obj)
	require.NoError(t, err)

	metadata := attrs["metadata"]
	require.Equal(t, cedarval.KindRecord, metadata.Kind)
	labels := metadata.Record["labels"]
	require.Equal(t, cedarval.KindSet, labels.Kind)
	require.Len(t, labels.Set, 2)

	var pairs []map[string]string
	for _, rec := range labels.Set {
		pairs = append(pairs, map[string]string{"key": rec.Record["key"].Str, "value": rec.Record["value"].Str})
	}
	assert.Contains(t, pairs, map[string]string{"key": "a", "value": "b"})
	assert.Contains(t, pairs, map[string]string{"key": "c", "value": "d"})
}

func TestWalkObjectStringMapField(t *testing.T) {
	ctx := walkContext{Group: "", Version: "v1", Kind: "ConfigMap"}
	obj := map[string]interface{}{
		"data": map[string]interface{}{"k1": "v1", "k2": 5}, // non-string value dropped
	}
	attrs, err := WalkObject(ctx, obj)
	require.NoError(t, err)
	data := attrs["data"]
	require.Equal(t, cedarval.KindSet, data.Kind)
	require.Len(t, data.Set, 1)
	assert.Equal(t, cedarval.String("k1"), data.Set[0].Record["key"])
}

func TestWalkObjectStringSliceMapField(t *testing.T) {
	ctx := walkContext{Group: "authentication.k8s.io", Version: "v1", Kind: "UserInfo"}
	obj := map[string]interface{}{
		"extra": map[string]interface{}{
			"scopes": []interface{}{"read", "write"},
			"bogus":  "not-an-array",
		},
	}
	attrs, err := WalkObject(ctx, obj)
	require.NoError(t, err)
	extra := attrs["extra"]
	require.Len(t, extra.Set, 1)
	assert.Equal(t, cedarval.String("scopes"), extra.Set[0].Record["key"])
	assert.Len(t, extra.Set[0].Record["value"].Set, 2)
}

func TestWalkObjectSkipsEnvelopeFields(t *testing.T) {
	obj := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"spec":       map[string]interface{}{"nodeName": "n1"},
	}
	attrs, err := WalkObject(podCtx(), obj)
	require.NoError(t, err)
	_, hasAPIVersion := attrs["apiVersion"]
	_, hasKind := attrs["kind"]
	assert.False(t, hasAPIVersion)
	assert.False(t, hasKind)
	assert.Contains(t, attrs, "spec")
}
