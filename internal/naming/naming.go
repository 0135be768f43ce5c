// Package naming implements the bijection between a Kubernetes
// Group/Version/Kind and the dotted Cedar entity type name used throughout
// this module (spec.md §4.4).
package naming

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

const coreGroupSegment = "core"

// TypeName converts a GVK into its Cedar type name: the group's dot-separated
// parts are reversed and hyphens become underscores, then version and kind
// are appended, all joined by "::". An empty group becomes the single
// segment "core".
//
//	GVK{Group: "", Version: "v1", Kind: "Pod"}                  -> "core::v1::Pod"
//	GVK{Group: "apps", Version: "v1", Kind: "Deployment"}       -> "apps::v1::Deployment"
//	GVK{Group: "cedar.k8s.aws", Version: "v1alpha1", Kind: "Policy"} -> "aws::k8s::cedar::v1alpha1::Policy"
func TypeName(gvk schema.GroupVersionKind) string {
	return Namespace(gvk.Group, gvk.Version) + "::" + gvk.Kind
}

// Namespace returns just the group/version portion of TypeName, the Cedar
// namespace a (group, version)'s entity types and actions are declared in.
// Used by internal/schema to place OpenAPI-derived entity types.
func Namespace(group, version string) string {
	sanitized := strings.ReplaceAll(group, "-", "_")

	var parts []string
	if sanitized == "" {
		parts = []string{coreGroupSegment}
	} else {
		parts = strings.Split(sanitized, ".")
		reverse(parts)
	}

	parts = append(parts, version)
	return strings.Join(parts, "::")
}

// GVK inverts TypeName: it splits a Cedar type name on "::" and reconstructs
// the originating GroupVersionKind. It is the inverse named by spec.md §8's
// round-trip law, TypeName(GVK(name)) == name, for every name TypeName can
// produce (it does not attempt to recover hyphens collapsed into underscores,
// since that transform is lossy by construction).
func GVK(typeName string) (schema.GroupVersionKind, error) {
	parts := strings.Split(typeName, "::")
	if len(parts) < 2 {
		return schema.GroupVersionKind{}, fmt.Errorf("naming: %q is not a valid Cedar type name", typeName)
	}

	kind := parts[len(parts)-1]
	version := parts[len(parts)-2]
	groupParts := parts[:len(parts)-2]

	var group string
	if len(groupParts) == 1 && groupParts[0] == coreGroupSegment {
		group = ""
	} else {
		reverse(groupParts)
		group = strings.Join(groupParts, ".")
	}

	return schema.GroupVersionKind{Group: group, Version: version, Kind: kind}, nil
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// RESTPath constructs the canonical REST path used as an admission entity's
// id (spec.md §3, §4.3). namespace, name and subResource are optional; pass
// the empty string to omit a segment.
func RESTPath(group, version, resource, namespace, name, subResource string) string {
	var b strings.Builder
	if group == "" {
		fmt.Fprintf(&b, "/api/%s", version)
	} else {
		fmt.Fprintf(&b, "/apis/%s/%s", group, version)
	}
	if namespace != "" {
		fmt.Fprintf(&b, "/namespaces/%s", namespace)
	}
	fmt.Fprintf(&b, "/%s", strings.ToLower(resource))
	if name != "" {
		fmt.Fprintf(&b, "/%s", name)
	}
	if subResource != "" {
		fmt.Fprintf(&b, "/%s", subResource)
	}
	return b.String()
}
