// Package webhook implements the three pure HTTP handlers of spec.md §4.7:
// /authorize, /admit, /validate, plus the /healthz liveness probe. Every
// handler is envelope-in, envelope-out; none of them mutate shared state.
package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	admissionv1 "k8s.io/api/admission/v1"
	authorizationv1 "k8s.io/api/authorization/v1"

	"github.com/go-logr/logr"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/metrics"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/policystore"
)

// Handler wires the three decision endpoints to a tiered policy store and
// an optional Cedar JSON schema document for /validate's type-checking step.
type Handler struct {
	store   *policystore.TieredPolicyStore
	schema  []byte
	log     logr.Logger
	metrics metrics.Recorder
}

// NewHandler builds a Handler. schema may be nil when CEDAR_SCHEMA was not
// configured; /validate then only performs the mandatory syntax check.
// recorder is the zero value when metrics were not started.
func NewHandler(store *policystore.TieredPolicyStore, schema []byte, log logr.Logger, recorder metrics.Recorder) *Handler {
	return &Handler{store: store, schema: schema, log: log.WithName("webhook"), metrics: recorder}
}

// RegisterRoutes registers all four endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/authorize", h.handleAuthorize)
	mux.HandleFunc("/admit", h.handleAdmit)
	mux.HandleFunc("/validate", h.handleValidate)
	mux.HandleFunc("/healthz", h.handleHealthz)
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var review authorizationv1.SubjectAccessReview
	if !h.decode(w, r, &review) {
		return
	}
	h.respond(w, h.Authorize(r.Context(), &review))
}

func (h *Handler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var review admissionv1.AdmissionReview
	if !h.decode(w, r, &review) {
		return
	}
	if review.Request == nil {
		http.Error(w, "AdmissionReview.request must not be null", http.StatusBadRequest)
		return
	}
	h.respond(w, h.Admit(r.Context(), &review))
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var review admissionv1.AdmissionReview
	if !h.decode(w, r, &review) {
		return
	}
	if review.Request == nil {
		http.Error(w, "AdmissionReview.request must not be null", http.StatusBadRequest)
		return
	}
	h.respond(w, h.Validate(r.Context(), &review))
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !h.store.Ready() {
		http.Error(w, "policy store not yet loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// decode reads and unmarshals r's body into v. It writes an HTTP error
// response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "invalid request JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error(err, "failed to encode response")
	}
}
