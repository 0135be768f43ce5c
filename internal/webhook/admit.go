package webhook

import (
	"context"

	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/admission"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/engine"
)

// Admit implements /admit (spec.md §4.7). A translation error fails
// closed with a denial (spec.md §7, §9: "the current code panics... this
// spec mandates" fail-closed instead).
func (h *Handler) Admit(ctx context.Context, review *admissionv1.AdmissionReview) *admissionv1.AdmissionReview {
	out := &admissionv1.AdmissionReview{TypeMeta: review.TypeMeta}
	req := review.Request

	entities, cedarReq, err := admission.BuildEntitiesAndRequest(req)
	if err != nil {
		h.log.Error(err, "admit: translation error, failing closed")
		out.Response = denyResponse(req.UID, err.Error())
		h.metrics.RecordAdmit(ctx, false)
		return out
	}

	resp, err := h.store.IsAuthorized(entities, cedarReq)
	if err != nil {
		h.log.Error(err, "admit: store error, failing closed")
		out.Response = denyResponse(req.UID, err.Error())
		h.metrics.RecordAdmit(ctx, false)
		return out
	}

	if resp.Decision == engine.DecisionDeny {
		out.Response = denyResponse(req.UID, constants.AdmitDeniedMessage)
		h.metrics.RecordAdmit(ctx, false)
		return out
	}

	out.Response = &admissionv1.AdmissionResponse{UID: req.UID, Allowed: true}
	h.metrics.RecordAdmit(ctx, true)
	return out
}

func denyResponse(uid, message string) *admissionv1.AdmissionResponse {
	return &admissionv1.AdmissionResponse{
		UID:     uid,
		Allowed: false,
		Result:  &metav1.Status{Message: message},
	}
}
