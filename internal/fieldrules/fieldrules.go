// Package fieldrules holds the one hard-coded per-(group, version, kind,
// field) table spec.md §9 calls out as "the component's specification, not
// accidental complexity": which object fields are string-maps, which are
// string-slice-maps, and which fields transition the walker into a
// distinctly-typed nested struct. internal/admission's runtime JSON walker
// and internal/schema's static OpenAPI walker both key off this single
// table so the two can never drift apart.
package fieldrules

// GVKField identifies one (group, version, kind, field) table entry.
type GVKField struct {
	Group, Version, Kind, Field string
}

// StringMapFields are fields that emit the same {key, value} record set as
// labels/annotations (spec.md §4.3 object rule 2).
var StringMapFields = map[GVKField]bool{
	{"", "v1", "ConfigMap", "data"}:                                         true,
	{"", "v1", "ConfigMap", "binaryData"}:                                   true,
	{"", "v1", "CSIPersistentVolumeSource", "volumeAttributes"}:             true,
	{"", "v1", "CSIVolumeSource", "volumeAttributes"}:                       true,
	{"", "v1", "FlexPersistentVolumeSource", "options"}:                     true,
	{"", "v1", "FlexVolumeSource", "options"}:                               true,
	{"", "v1", "PersistentVolumeClaimStatus", "allocatedResourceStatuses"}:  true,
	{"", "v1", "Pod", "nodeSelector"}:                                       true,
	{"", "v1", "ReplicationController", "selector"}:                        true,
	{"", "v1", "Secret", "data"}:                                           true,
	{"", "v1", "Secret", "stringData"}:                                     true,
	{"", "v1", "Service", "selector"}:                                      true,
	{"discovery.k8s.io", "v1", "Endpoint", "deprecatedTopology"}:           true,
	{"node.k8s.io", "v1", "Scheduling", "nodeSelectors"}:                   true,
	{"storage.k8s.io", "v1", "StorageClass", "parameters"}:                 true,
	{"storage.k8s.io", "v1", "VolumeAttachmentStatus", "attachmentMetadata"}: true,
	{"meta", "v1", "LabelSelector", "matchLabels"}:                         true,
	{"meta", "v1", "ObjectMeta", "annotations"}:                            true,
	{"meta", "v1", "ObjectMeta", "labels"}:                                 true,
}

// StringSliceMapFields emit a {key, value} record set where value is itself
// a set of strings (spec.md §4.3 object rule 3).
var StringSliceMapFields = map[GVKField]bool{
	{"authentication.k8s.io", "v1", "UserInfo", "extra"}:               true,
	{"authorization.k8s.io", "v1", "SubjectAccessReview", "extra"}:     true,
	{"certificates.k8s.io", "v1", "CertificateSigningRequest", "extra"}: true,
}

// KindTransition names a field whose value is a distinctly-typed nested
// struct; the tables above key off the transitioned (group, version, kind),
// not the containing one.
type KindTransition struct {
	FromGroup, FromVersion, FromKind, Field string
}

var kindTransitions = map[KindTransition]GVKField{
	{"", "v1", "Pod", "metadata"}:                           {"meta", "v1", "ObjectMeta", ""},
	{"", "v1", "PersistentVolumeClaim", "status"}:           {"", "v1", "PersistentVolumeClaimStatus", ""},
	{"", "v1", "PersistentVolume", "csi"}:                   {"", "v1", "CSIPersistentVolumeSource", ""},
	{"", "v1", "PersistentVolume", "flexVolume"}:            {"", "v1", "FlexPersistentVolumeSource", ""},
	{"storage.k8s.io", "v1", "VolumeAttachment", "status"}:  {"storage.k8s.io", "v1", "VolumeAttachmentStatus", ""},
	{"node.k8s.io", "v1", "RuntimeClass", "scheduling"}:     {"node.k8s.io", "v1", "Scheduling", ""},
}

// TransitionFor resolves a field traversal to the (group, version, kind) the
// table keys its map-field entries on. The "selector" and "endpoints" cases
// need Kind context since the same field name means a literal string-map on
// two Kinds but a LabelSelector/Endpoint struct everywhere else.
func TransitionFor(group, version, kind, field string) (GVKField, bool) {
	if t, ok := kindTransitions[KindTransition{group, version, kind, field}]; ok {
		return t, true
	}
	switch field {
	case "metadata":
		return GVKField{"meta", "v1", "ObjectMeta", ""}, true
	case "csi":
		return GVKField{"", "v1", "CSIVolumeSource", ""}, true
	case "flexVolume":
		return GVKField{"", "v1", "FlexVolumeSource", ""}, true
	case "selector":
		isLiteralMapKind := group == "" && (kind == "Service" || kind == "ReplicationController")
		if !isLiteralMapKind {
			return GVKField{"meta", "v1", "LabelSelector", ""}, true
		}
	case "endpoints":
		if group == "discovery.k8s.io" && kind == "EndpointSlice" {
			return GVKField{"discovery.k8s.io", "v1", "Endpoint", ""}, true
		}
	}
	return GVKField{}, false
}
