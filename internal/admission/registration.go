package admission

import (
	admissionregistrationv1 "k8s.io/api/admissionregistration/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WebhookConfig describes the one running cedar-authorizer endpoint a
// ValidatingWebhookConfiguration for the authorize/admit/validate surface
// points at.
type WebhookConfig struct {
	Name        string
	ServiceName string
	Namespace   string
	Path        string
	Port        int32
	CABundle    []byte
}

// BuildValidatingWebhookConfiguration builds the ValidatingWebhookConfiguration
// object that registers cedar-authorizer's /admit endpoint with the API
// server (spec.md §6's Policy CRD implies a ValidatingWebhookConfiguration
// pointing at it; the raw HTTP contract alone does not self-register).
func BuildValidatingWebhookConfiguration(cfg WebhookConfig) *admissionregistrationv1.ValidatingWebhookConfiguration {
	path := cfg.Path
	port := cfg.Port
	sideEffects := admissionregistrationv1.SideEffectClassNone
	failurePolicy := admissionregistrationv1.Fail
	matchPolicy := admissionregistrationv1.Equivalent

	return &admissionregistrationv1.ValidatingWebhookConfiguration{
		ObjectMeta: metav1.ObjectMeta{
			Name:   cfg.Name,
			Labels: map[string]string{"app.kubernetes.io/name": "cedar-authorizer"},
		},
		Webhooks: []admissionregistrationv1.ValidatingWebhook{
			{
				Name: cfg.Name + ".cedar.k8s.aws",
				ClientConfig: admissionregistrationv1.WebhookClientConfig{
					Service: &admissionregistrationv1.ServiceReference{
						Namespace: cfg.Namespace,
						Name:      cfg.ServiceName,
						Path:      &path,
						Port:      &port,
					},
					CABundle: cfg.CABundle,
				},
				Rules: []admissionregistrationv1.RuleWithOperations{
					{
						Operations: []admissionregistrationv1.OperationType{
							admissionregistrationv1.Create,
							admissionregistrationv1.Update,
						},
						Rule: admissionregistrationv1.Rule{
							APIGroups:   []string{"*"},
							APIVersions: []string{"*"},
							Resources:   []string{"*/*"},
						},
					},
				},
				FailurePolicy:           &failurePolicy,
				MatchPolicy:             &matchPolicy,
				SideEffects:             &sideEffects,
				AdmissionReviewVersions: []string{"v1"},
			},
		},
	}
}
