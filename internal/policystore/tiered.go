package policystore

import (
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/engine"
)

// TieredPolicyStore evaluates a request against an ordered list of stores,
// falling through to the next tier on a "silent deny" (spec.md §4.5): a
// Deny carrying zero reasons and zero errors means the tier had no opinion.
// The last tier's decision is always returned, silent or not.
type TieredPolicyStore struct {
	tiers []Store
}

// NewTieredPolicyStore orders tiers from highest to lowest precedence.
// At least one tier is required.
func NewTieredPolicyStore(tiers ...Store) *TieredPolicyStore {
	return &TieredPolicyStore{tiers: tiers}
}

// IsAuthorized walks the tiers in order, returning the first non-silent
// decision, or the last tier's decision regardless (spec.md §4.5, §8
// scenario 2).
func (t *TieredPolicyStore) IsAuthorized(entities *cedarval.EntitySet, req cedarval.Request) (engine.Response, error) {
	last := silentDenyResponse()
	for i, tier := range t.tiers {
		if !tier.InitialLoadComplete() {
			if i == len(t.tiers)-1 {
				return last, nil
			}
			continue
		}

		ps, err := tier.PolicySet()
		if err != nil {
			return engine.Response{}, err
		}

		resp := engine.IsAuthorized(entities, req, ps)
		last = resp

		if i == len(t.tiers)-1 {
			return resp, nil
		}
		if !resp.IsSilentDeny() {
			return resp, nil
		}
	}
	return last, nil
}

// silentDenyResponse is the zero-opinion response: a Deny carrying zero
// reasons and zero errors, so engine.Response.IsSilentDeny reports true.
// Using it as the not-ready default avoids the zero-value engine.Response{},
// whose Decision field defaults to DecisionAllow.
func silentDenyResponse() engine.Response {
	return engine.Response{Decision: engine.DecisionDeny}
}

// Tiers exposes the underlying stores, for /healthz readiness checks.
func (t *TieredPolicyStore) Tiers() []Store { return t.tiers }

// Ready reports whether every tier has completed its initial load
// (spec.md §6 /healthz gating).
func (t *TieredPolicyStore) Ready() bool {
	for _, tier := range t.tiers {
		if !tier.InitialLoadComplete() {
			return false
		}
	}
	return true
}
