package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/validate"
)

// policyObject mirrors the Policy CRD's shape (spec.md §6): only the
// fields /validate needs to read.
type policyObject struct {
	Spec struct {
		Content    string `json:"content"`
		Validation struct {
			Enforced       bool   `json:"enforced"`
			ValidationMode string `json:"validationMode"`
		} `json:"validation"`
	} `json:"spec"`
}

// Validate implements /validate (spec.md §4.7): admits any object whose
// GVK is not a Policy, admits deletes/connects unconditionally, and
// otherwise enforces the mandatory syntax check plus the optional
// type-check.
func (h *Handler) Validate(ctx context.Context, review *admissionv1.AdmissionReview) *admissionv1.AdmissionReview {
	out := &admissionv1.AdmissionReview{TypeMeta: review.TypeMeta}
	req := review.Request

	if req.Kind.Group != constants.CedarPolicyAPIGroup || req.Kind.Kind != constants.CedarPolicyKind {
		out.Response = &admissionv1.AdmissionResponse{UID: req.UID, Allowed: true}
		return out
	}

	switch req.Operation {
	case admissionv1.Delete, admissionv1.Connect:
		out.Response = &admissionv1.AdmissionResponse{UID: req.UID, Allowed: true}
		return out
	}

	var policy policyObject
	if err := json.Unmarshal(req.Object.Raw, &policy); err != nil {
		out.Response = denyResponse(req.UID, fmt.Sprintf("malformed Policy object: %s", err))
		return out
	}

	mode := validate.Mode(policy.Spec.Validation.ValidationMode)
	if mode == "" {
		mode = validate.ModePermissive
	}

	result, err := validate.Content(policy.Spec.Content, h.schema, policy.Spec.Validation.Enforced, mode)
	if err != nil {
		h.log.Error(err, "validate: schema load error, failing closed")
		out.Response = denyResponse(req.UID, err.Error())
		h.metrics.RecordValidate(ctx, true, 0)
		return out
	}

	if result.Denied {
		out.Response = denyResponse(req.UID, result.Reason)
		h.metrics.RecordValidate(ctx, true, 0)
		return out
	}

	resp := &admissionv1.AdmissionResponse{UID: req.UID, Allowed: true}
	if len(result.Warnings) > 0 {
		resp.Warnings = result.Warnings
		resp.Result = &metav1.Status{Message: "policy set is valid with warnings"}
	}
	out.Response = resp
	h.metrics.RecordValidate(ctx, false, len(result.Warnings))
	return out
}
