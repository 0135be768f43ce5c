package webhook

import (
	"context"
	"strings"

	authorizationv1 "k8s.io/api/authorization/v1"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/authzresource"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/engine"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/identity"
)

const (
	cedarPolicyAPIGroup = "cedar.k8s.aws"
	rbacAPIGroupPrefix  = "rbac.authorization.k8s.io"
)

var rbacReadVerbs = map[string]bool{"get": true, "list": true, "watch": true}

// ActionTypeName is the Cedar type of every authorize action entity
// (spec.md §3, §4.2: "action from verb").
const ActionTypeName = "k8s::Action"

// Authorize implements /authorize (spec.md §4.7). It never touches the
// policy store for requests short-circuited to "no opinion".
func (h *Handler) Authorize(ctx context.Context, review *authorizationv1.SubjectAccessReview) *authorizationv1.SubjectAccessReview {
	out := &authorizationv1.SubjectAccessReview{
		TypeMeta: review.TypeMeta,
	}

	spec := review.Spec

	if isAbsentVerbRequest(spec) {
		h.metrics.RecordAuthorize(ctx, "no_opinion", true)
		return out
	}
	if h.isSelfReadBypass(spec) {
		h.metrics.RecordAuthorize(ctx, "no_opinion", true)
		return out
	}
	if isSystemBypass(spec.User) {
		h.metrics.RecordAuthorize(ctx, "no_opinion", true)
		return out
	}

	entities := cedarval.NewEntitySet()
	principal, groups := identity.Translate(identity.FromSubjectAccessReview(spec))
	entities.Add(principal)
	for _, g := range groups {
		entities.Add(g)
	}

	resource, err := authzresource.Translate(spec)
	if err != nil {
		h.log.Error(err, "authorize: translation error, returning no opinion")
		h.metrics.RecordAuthorize(ctx, "no_opinion", true)
		return out
	}
	entities.Add(resource)

	var verb string
	switch {
	case spec.NonResourceAttributes != nil:
		verb = spec.NonResourceAttributes.Verb
	case spec.ResourceAttributes != nil:
		verb = spec.ResourceAttributes.Verb
	}
	if verb == "" {
		verb = constants.UnknownVerb
	}

	req := cedarval.Request{
		Principal: principal.UID,
		Action:    cedarval.EntityUID{Type: ActionTypeName, ID: verb},
		Resource:  resource.UID,
	}

	resp, err := h.store.IsAuthorized(entities, req)
	if err != nil {
		h.log.Error(err, "authorize: store error, returning no opinion")
		h.metrics.RecordAuthorize(ctx, "no_opinion", true)
		return out
	}

	switch {
	case resp.IsSilentDeny():
		// no opinion: leave status zero-valued.
		h.metrics.RecordAuthorize(ctx, "no_opinion", true)
	case resp.Decision == engine.DecisionAllow:
		out.Status.Allowed = true
		h.metrics.RecordAuthorize(ctx, "allow", false)
	default:
		out.Status.Denied = true
		out.Status.Reason = "denied by Cedar policies"
		h.metrics.RecordAuthorize(ctx, "deny", false)
	}

	return out
}

// isAbsentVerbRequest implements spec.md §4.7 step 1: "Short-circuit to
// 'no opinion' when the request has resource attributes whose group,
// resource, and verb are all absent." This is the "absent verb" bypass
// missing from one version of the reference implementation (spec.md §9).
func isAbsentVerbRequest(spec authorizationv1.SubjectAccessReviewSpec) bool {
	ra := spec.ResourceAttributes
	return ra != nil && ra.Group == "" && ra.Resource == "" && ra.Verb == ""
}

// isSelfReadBypass implements spec.md §4.7 step 2.
func (h *Handler) isSelfReadBypass(spec authorizationv1.SubjectAccessReviewSpec) bool {
	if spec.User != constants.AuthorizerIdentity {
		return false
	}
	ra := spec.ResourceAttributes
	if ra == nil {
		return false
	}
	if ra.Group == cedarPolicyAPIGroup {
		return true
	}
	if strings.HasPrefix(ra.Group, rbacAPIGroupPrefix) && rbacReadVerbs[ra.Verb] {
		return true
	}
	return false
}

// isSystemBypass implements spec.md §4.7 step 3.
func isSystemBypass(username string) bool {
	if !strings.HasPrefix(username, "system:") {
		return false
	}
	return !strings.HasPrefix(username, "system:node:") && !strings.HasPrefix(username, "system:serviceaccount:")
}
