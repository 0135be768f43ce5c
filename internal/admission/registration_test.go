package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValidatingWebhookConfiguration(t *testing.T) {
	whc := BuildValidatingWebhookConfiguration(WebhookConfig{
		Name:        "cedar-authorizer",
		ServiceName: "cedar-authorizer",
		Namespace:   "cedar-authorizer",
		Path:        "/admit",
		Port:        8443,
		CABundle:    []byte("ca-bundle"),
	})

	require.Len(t, whc.Webhooks, 1)
	hook := whc.Webhooks[0]
	assert.Equal(t, "/admit", *hook.ClientConfig.Service.Path)
	assert.Equal(t, []byte("ca-bundle"), hook.ClientConfig.CABundle)
	assert.Equal(t, []string{"v1"}, hook.AdmissionReviewVersions)
}
