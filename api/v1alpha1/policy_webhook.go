/*


Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/go-logr/logr"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/validate"
)

// SetupWebhookWithManager registers the Policy CustomValidator with the
// controller manager. This is the same entry point /validate's standalone
// HTTP handler implements independently (spec.md §4.7, §9): the manager
// path is for clusters that run this module's CRD through a
// controller-runtime-managed webhook server rather than the raw
// cedar-authorizer binary.
func (r *Policy) SetupWebhookWithManager(mgr ctrl.Manager, schema []byte) error {
	logger := mgr.GetLogger().WithName("policy-webhook")

	err := ctrl.NewWebhookManagedBy(mgr).
		For(r).
		WithValidator(&policyValidator{logger: logger, schema: schema}).
		Complete()
	if err != nil {
		return fmt.Errorf("failed enrolling webhook with manager: %w", err)
	}
	return nil
}

//+kubebuilder:webhook:path=/validate-cedar-k8s-aws-v1alpha1-policy,mutating=false,failurePolicy=fail,sideEffects=None,groups=cedar.k8s.aws,resources=policies,verbs=create;update,versions=v1alpha1,name=vpolicy.kb.io,admissionReviewVersions={v1}

// policyValidator validates Policy objects when they are created or
// updated, delegating the decision to the same validate.Content helper the
// /validate HTTP handler calls (internal/validate).
type policyValidator struct {
	logger logr.Logger
	schema []byte
}

var _ webhook.CustomValidator = &policyValidator{}

// ValidateCreate implements webhook.CustomValidator.
func (v *policyValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	policy, ok := obj.(*Policy)
	if !ok {
		return nil, fmt.Errorf("expected a Policy object, got %T", obj)
	}
	return v.validate(policy)
}

// ValidateUpdate implements webhook.CustomValidator.
func (v *policyValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	policy, ok := newObj.(*Policy)
	if !ok {
		return nil, fmt.Errorf("expected a Policy object, got %T", newObj)
	}
	return v.validate(policy)
}

// ValidateDelete implements webhook.CustomValidator. Deletes are admitted
// unconditionally (spec.md §4.7 step 2 of /validate).
func (v *policyValidator) ValidateDelete(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func (v *policyValidator) validate(policy *Policy) (admission.Warnings, error) {
	mode := validate.Mode(policy.Spec.Validation.ValidationMode)
	if mode == "" {
		mode = validate.ModePermissive
	}

	result, err := validate.Content(policy.Spec.Content, v.schema, policy.Spec.Validation.Enforced, mode)
	if err != nil {
		v.logger.Error(err, "failing closed on schema load error", "name", policy.GetName())
		return nil, err
	}
	if result.Denied {
		return nil, fmt.Errorf("cedar policy validation failed: %s", result.Reason)
	}
	return admission.Warnings(result.Warnings), nil
}
