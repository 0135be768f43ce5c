package schema

import (
	"fmt"

	"github.com/go-logr/logr"
	kubeopenapispec "k8s.io/kube-openapi/pkg/validation/spec"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/naming"
)

// OpenAPIDocument is the subset of a GET /openapi/v3/<path> response this
// package needs: the component schemas a converter walks (spec.md §4.6
// "Inputs"). kube-openapi's spec3.OpenAPI carries this same
// Components.Schemas shape; callers pass it through unwrapped so this
// package has no direct HTTP/client-go dependency of its own.
type OpenAPIDocument struct {
	Schemas map[string]*kubeopenapispec.Schema
}

// GroupVersionResources reports the verbs each Kind in a (group, version)
// supports, as read off the discovery APIResourceList (spec.md §4.6
// "Inputs"). Kinds is keyed by Kind, the schema name the converter emits.
type GroupVersionResources struct {
	Group, Version string
	Kinds          map[string]VerbSet // Kind -> verbs
}

// Fetcher is implemented by a Kubernetes API client capable of supplying a
// schema generator run's two inputs: the OpenAPI v3 document per (group,
// version) path, and the discovery APIResourceList for that same group.
// cmd/schema-generator wires this to k8s.io/client-go's discovery and
// openapi3 clients; tests supply a fixed in-memory fake.
type Fetcher interface {
	// Paths returns every /openapi/v3/<path> entry, e.g. "apis/apps/v1".
	Paths() ([]string, error)
	// Document fetches one path's OpenAPI v3 document.
	Document(path string) (*OpenAPIDocument, error)
	// Resources fetches the discovery APIResourceList for one (group, version).
	Resources(group, version string) (GroupVersionResources, error)
}

// Generate implements spec.md §4.6 end to end: start from BaseSchema, fetch
// and convert every group/version's OpenAPI document, wire verbs from
// discovery, and post-process the merged result.
func Generate(f Fetcher, log logr.Logger) (Document, error) {
	doc := BaseSchema()

	paths, err := f.Paths()
	if err != nil {
		return nil, fmt.Errorf("schema: listing openapi paths: %w", err)
	}

	for _, path := range paths {
		group, version, ok := groupVersionForPath(path)
		if !ok {
			log.V(1).Info("schema: skipping unrecognized openapi path", "path", path)
			continue
		}

		apiDoc, err := f.Document(path)
		if err != nil {
			log.Error(err, "schema: fetching openapi document", "path", path)
			continue
		}

		converted := newConverter(apiDoc.Schemas, group, version).Convert()
		if len(converted.entityTypes) == 0 && len(converted.commonTypes) == 0 {
			continue
		}

		namespace := naming.Namespace(group, version)
		ns := doc[namespace]
		ns.CommonTypes = mergeTypes(ns.CommonTypes, converted.commonTypes)
		ns.EntityTypes = mergeEntities(ns.EntityTypes, converted.entityTypes)
		doc[namespace] = ns

		resources, err := f.Resources(group, version)
		if err != nil {
			log.Error(err, "schema: fetching discovery resources", "group", group, "version", version)
			continue
		}
		wireVerbs(doc, namespace, doc[namespace].EntityTypes, resources.Kinds)
	}

	postProcess(doc)
	return doc, nil
}

func mergeTypes(dst, src map[string]Type) map[string]Type {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]Type{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func mergeEntities(dst, src map[string]Entity) map[string]Entity {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]Entity{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// groupVersionForPath parses a discovery /openapi/v3 path entry ("api/v1",
// "apis/apps/v1", "apis/cedar.k8s.aws/v1alpha1") into (group, version).
func groupVersionForPath(path string) (group, version string, ok bool) {
	segments := splitPath(path)
	switch {
	case len(segments) == 2 && segments[0] == "api":
		return "", segments[1], true
	case len(segments) == 3 && segments[0] == "apis":
		return segments[1], segments[2], true
	default:
		return "", "", false
	}
}

func splitPath(path string) []string {
	var segments []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	return segments
}
