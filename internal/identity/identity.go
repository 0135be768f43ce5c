// Package identity implements the identity translator (spec.md §4.1):
// turning the three principal shapes a cluster emits — ordinary users, node
// identities, and service accounts — plus group membership and extras into
// typed Cedar entities.
package identity

import (
	"sort"
	"strings"

	authenticationv1 "k8s.io/api/authentication/v1"
	authorizationv1 "k8s.io/api/authorization/v1"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
)

const (
	TypeUser           = "k8s::User"
	TypeNode           = "k8s::Node"
	TypeServiceAccount = "k8s::ServiceAccount"
	TypeGroup          = "k8s::Group"
)

// Input is the cluster-shape-independent view of a principal the translator
// consumes; SubjectAccessReview.Spec and AdmissionRequest.UserInfo both
// adapt into it so admission reuses the same translation path (see
// FromUserInfo / FromSubjectAccessReview).
type Input struct {
	Username string
	UID      string
	Groups   []string
	Extra    map[string][]string
}

// FromSubjectAccessReview builds an Input from a SubjectAccessReviewSpec.
func FromSubjectAccessReview(spec authorizationv1.SubjectAccessReviewSpec) Input {
	return Input{
		Username: spec.User,
		UID:      spec.UID,
		Groups:   spec.Groups,
		Extra:    flattenExtra(spec.Extra),
	}
}

// FromUserInfo builds an Input from an AdmissionRequest's authenticated user,
// the path the admission walker uses (original_source's
// create_subject_access_review synthesizes a SAR for exactly this purpose;
// we skip the round trip and adapt UserInfo directly).
func FromUserInfo(u authenticationv1.UserInfo) Input {
	return Input{
		Username: u.Username,
		UID:      u.UID,
		Groups:   u.Groups,
		Extra:    flattenExtraStrings(u.Extra),
	}
}

func flattenExtra(in map[string]authorizationv1.ExtraValue) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func flattenExtraStrings(in map[string]authenticationv1.ExtraValue) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Translate produces one principal entity and one entity per group
// (spec.md §4.1). The principal's parent set is the union of the group
// entity ids; extras become an "extra" attribute of {key, values} records,
// where values is the input value list joined with "," in source order.
func Translate(in Input) (principal cedarval.Entity, groups []cedarval.Entity) {
	username := in.Username
	if username == "" {
		username = constants.AnonymousUsername
	}

	groups = make([]cedarval.Entity, 0, len(in.Groups))
	parents := make([]cedarval.EntityUID, 0, len(in.Groups))
	for _, g := range in.Groups {
		uid := cedarval.EntityUID{Type: TypeGroup, ID: g}
		e := cedarval.NewEntity(uid)
		e.Attrs["name"] = cedarval.String(g)
		groups = append(groups, e)
		parents = append(parents, uid)
	}

	principalType, attrs := classify(username)

	id := in.UID
	if id == "" {
		id = username
	}

	principal = cedarval.NewEntity(cedarval.EntityUID{Type: principalType, ID: id})
	for k, v := range attrs {
		principal.Attrs[k] = v
	}
	principal.Parents = parents

	if len(in.Extra) > 0 {
		principal.Attrs["extra"] = extraSet(in.Extra)
	}

	return principal, groups
}

// classify determines the principal's Cedar type and base attributes from
// its username shape (spec.md §3).
func classify(username string) (typeName string, attrs map[string]cedarval.Value) {
	if n, ok := matchNode(username); ok {
		return TypeNode, map[string]cedarval.Value{"name": cedarval.String(n)}
	}
	if ns, n, ok := matchServiceAccount(username); ok {
		return TypeServiceAccount, map[string]cedarval.Value{
			"namespace": cedarval.String(ns),
			"name":      cedarval.String(n),
		}
	}
	return TypeUser, map[string]cedarval.Value{"name": cedarval.String(username)}
}

// matchNode matches "system:node:<n>" with exactly two colons.
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

// matchServiceAccount matches "system:serviceaccount:<ns>:<n>" with exactly
// three colons.
func matchServiceAccount(username string) (namespace, name string, ok bool) {
	const prefix = "system:serviceaccount:"
	if !strings.HasPrefix(username, prefix) {
		return "", "", false
	}
	if strings.Count(username, ":") != 3 {
		return "", "", false
	}
	rest := strings.TrimPrefix(username, prefix)
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func extraSet(extra map[string][]string) cedarval.Value {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]cedarval.Value, 0, len(keys))
	for _, k := range keys {
		records = append(records, cedarval.Record(map[string]cedarval.Value{
			"key":    cedarval.String(k),
			"values": cedarval.String(strings.Join(extra[k], ",")),
		}))
	}
	return cedarval.Set(records...)
}
