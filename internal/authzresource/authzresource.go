// Package authzresource implements the authz resource translator
// (spec.md §4.2): turning a SubjectAccessReview's ResourceAttributes or
// NonResourceAttributes into a single resource entity.
package authzresource

import (
	"fmt"
	"strings"

	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/identity"
)

const (
	TypeResource      = "k8s::Resource"
	TypeNonResource   = "k8s::NonResource"
	TypePrincipalUID  = "k8s::PrincipalUID"
	TypeExtra         = "k8s::Extra"
	ImpersonateVerb   = "impersonate"
)

// Translate builds the single resource entity addressed by a
// SubjectAccessReviewSpec (spec.md §4.2).
func Translate(spec authorizationv1.SubjectAccessReviewSpec) (cedarval.Entity, error) {
	if spec.NonResourceAttributes != nil && spec.NonResourceAttributes.Path != "" {
		return nonResourceEntity(*spec.NonResourceAttributes), nil
	}
	if spec.ResourceAttributes == nil {
		return cedarval.Entity{}, fmt.Errorf("authzresource: request has neither resourceAttributes nor nonResourceAttributes")
	}
	ra := *spec.ResourceAttributes
	if ra.Verb == ImpersonateVerb {
		return impersonatedEntity(ra)
	}
	return resourceEntity(ra)
}

func nonResourceEntity(nra authorizationv1.NonResourceAttributes) cedarval.Entity {
	e := cedarval.NewEntity(cedarval.EntityUID{Type: TypeNonResource, ID: nra.Path})
	e.Attrs["path"] = cedarval.String(nra.Path)
	return e
}

func resourceEntity(ra authorizationv1.ResourceAttributes) (cedarval.Entity, error) {
	if ra.Resource == "" {
		return cedarval.Entity{}, fmt.Errorf("authzresource: resourceAttributes.resource is required")
	}

	e := cedarval.NewEntity(cedarval.EntityUID{Type: TypeResource, ID: ra.Resource})
	e.Attrs["apiGroup"] = cedarval.String(ra.Group)
	e.Attrs["resource"] = cedarval.String(ra.Resource)

	if ra.Namespace != "" {
		e.Attrs["namespace"] = cedarval.String(ra.Namespace)
	}
	if ra.Name != "" {
		e.Attrs["name"] = cedarval.String(ra.Name)
	}
	if ra.Subresource != "" {
		e.Attrs["subresource"] = cedarval.String(ra.Subresource)
	}
	if ra.LabelSelector != nil && len(ra.LabelSelector.Requirements) > 0 {
		e.Attrs["labelSelector"] = labelSelectorSet(ra.LabelSelector.Requirements)
	}
	if ra.FieldSelector != nil && len(ra.FieldSelector.Requirements) > 0 {
		e.Attrs["fieldSelector"] = fieldSelectorSet(ra.FieldSelector.Requirements)
	}

	return e, nil
}

func labelSelectorSet(reqs []metav1.LabelSelectorRequirement) cedarval.Value {
	records := make([]cedarval.Value, 0, len(reqs))
	for _, r := range reqs {
		values := make([]cedarval.Value, 0, len(r.Values))
		for _, v := range r.Values {
			values = append(values, cedarval.String(v))
		}
		records = append(records, cedarval.Record(map[string]cedarval.Value{
			"key":      cedarval.String(r.Key),
			"operator": cedarval.String(string(r.Operator)),
			"values":   cedarval.Set(values...),
		}))
	}
	return cedarval.Set(records...)
}

func fieldSelectorSet(reqs []metav1.FieldSelectorRequirement) cedarval.Value {
	records := make([]cedarval.Value, 0, len(reqs))
	for _, r := range reqs {
		var first string
		if len(r.Values) > 0 {
			first = r.Values[0]
		}
		records = append(records, cedarval.Record(map[string]cedarval.Value{
			"field":    cedarval.String(r.Key),
			"operator": cedarval.String(string(r.Operator)),
			"value":    cedarval.String(first),
		}))
	}
	return cedarval.Set(records...)
}

// impersonatedEntity dispatches on the impersonated resource kind
// (spec.md §3, grounded on original_source's impersonated_resource_to_entity).
func impersonatedEntity(ra authorizationv1.ResourceAttributes) (cedarval.Entity, error) {
	switch ra.Resource {
	case "serviceaccounts":
		id := fmt.Sprintf("system:serviceaccount:%s:%s", ra.Namespace, ra.Name)
		e := cedarval.NewEntity(cedarval.EntityUID{Type: identity.TypeServiceAccount, ID: id})
		e.Attrs["name"] = cedarval.String(ra.Name)
		e.Attrs["namespace"] = cedarval.String(ra.Namespace)
		return e, nil
	case "uids":
		e := cedarval.NewEntity(cedarval.EntityUID{Type: TypePrincipalUID, ID: ra.Name})
		return e, nil
	case "users":
		if n, ok := matchNode(ra.Name); ok {
			e := cedarval.NewEntity(cedarval.EntityUID{Type: identity.TypeNode, ID: ra.Name})
			e.Attrs["name"] = cedarval.String(n)
			return e, nil
		}
		e := cedarval.NewEntity(cedarval.EntityUID{Type: identity.TypeUser, ID: ra.Name})
		e.Attrs["name"] = cedarval.String(ra.Name)
		return e, nil
	case "groups":
		e := cedarval.NewEntity(cedarval.EntityUID{Type: identity.TypeGroup, ID: ra.Name})
		e.Attrs["name"] = cedarval.String(ra.Name)
		return e, nil
	case "userextras":
		e := cedarval.NewEntity(cedarval.EntityUID{Type: TypeExtra, ID: ra.Subresource})
		e.Attrs["key"] = cedarval.String(ra.Subresource)
		if ra.Name != "" {
			e.Attrs["value"] = cedarval.String(ra.Name)
		}
		return e, nil
	default:
		return cedarval.Entity{}, fmt.Errorf("authzresource: unknown impersonation kind %q", ra.Resource)
	}
}

// matchNode matches "system:node:<n>" with exactly two colons, mirroring
// internal/identity's principal classification (spec.md §3).
func matchNode(username string) (name string, ok bool) {
	const prefix = "system:node:"
	if !strings.HasPrefix(username, prefix) {
		return "", false
	}
	if strings.Count(username, ":") != 2 {
		return "", false
	}
	return strings.TrimPrefix(username, prefix), true
}
