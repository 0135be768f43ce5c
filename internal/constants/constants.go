// Package constants centralizes defaults and environment variable names
// shared across the cedar-authorizer server and the schema-generator CLI.
package constants

import "time"

const (
	// EnvPort is the TCP port the webhook server listens on.
	EnvPort = "PORT"
	// DefaultPort is used when EnvPort is unset.
	DefaultPort = 8443

	// EnvTLSCertPath points at a PEM-encoded certificate.
	EnvTLSCertPath = "TLS_CERT_PATH"
	// EnvTLSKeyPath points at the certificate's PEM-encoded private key.
	EnvTLSKeyPath = "TLS_KEY_PATH"

	// EnvPolicyDir points at the directory DirectoryStore scans for .cedar files.
	EnvPolicyDir = "POLICY_DIR"
	// DefaultPolicyDir is used when EnvPolicyDir is unset.
	DefaultPolicyDir = "./policies"

	// EnvPolicyRefreshInterval configures the DirectoryStore's background refresh period.
	EnvPolicyRefreshInterval = "POLICY_REFRESH_INTERVAL"
	// DefaultPolicyRefreshInterval is used when EnvPolicyRefreshInterval is unset.
	DefaultPolicyRefreshInterval = 10 * time.Second
	// MinPolicyRefreshInterval is the smallest refresh interval DirectoryStore accepts.
	MinPolicyRefreshInterval = time.Second

	// EnvCedarSchema points at a Cedar schema JSON file consumed by /validate.
	EnvCedarSchema = "CEDAR_SCHEMA"

	// CedarFileExtension is the only file extension DirectoryStore loads.
	CedarFileExtension = ".cedar"

	// PolicyIDAnnotation is the Cedar policy annotation that pins a stable policy id.
	PolicyIDAnnotation = "id"

	// MaxWalkDepth bounds admission object tree recursion (spec.md §3 invariant 3).
	MaxWalkDepth = 32

	// AuthorizerIdentity is this service's own Kubernetes identity, used for the
	// self-request bypass in the /authorize handler.
	AuthorizerIdentity = "cedar-authorizer"

	// CedarPolicyAPIGroup is the API group of the Policy CRD validated by /validate.
	CedarPolicyAPIGroup = "cedar.k8s.aws"
	// CedarPolicyKind is the Kind of the Policy CRD validated by /validate.
	CedarPolicyKind = "Policy"

	// AdmitDeniedMessage is the fixed message attached to /admit denials.
	AdmitDeniedMessage = "Not authorized by Cedar policies"

	// AnonymousUsername is substituted when a review carries no username.
	AnonymousUsername = "anonymous"

	// UnknownVerb is substituted when a SubjectAccessReview carries no verb.
	UnknownVerb = "unknown"

	// MetricsShutdownTimeout bounds the grace period for flushing OTel metrics on exit.
	MetricsShutdownTimeout = 5 * time.Second
)
