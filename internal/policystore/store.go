// Package policystore implements the tiered policy store (spec.md §4.5):
// StaticStore and DirectoryStore, plus TieredPolicyStore's "pass-through on
// silent deny" evaluation rule.
package policystore

import (
	cedar "github.com/cedar-policy/cedar-go"
)

// Store is the interface every tier implements.
type Store interface {
	// InitialLoadComplete reports whether the store's first load has
	// finished; until true the evaluator must treat this tier as absent.
	InitialLoadComplete() bool
	// PolicySet returns the store's current immutable snapshot.
	PolicySet() (*cedar.PolicySet, error)
	// Name identifies the store for logging.
	Name() string
}

// StaticStore wraps a fixed policy set; always ready (spec.md §4.5).
type StaticStore struct {
	name string
	ps   *cedar.PolicySet
}

// NewStaticStore wraps ps under name.
func NewStaticStore(name string, ps *cedar.PolicySet) *StaticStore {
	return &StaticStore{name: name, ps: ps}
}

func (s *StaticStore) InitialLoadComplete() bool             { return true }
func (s *StaticStore) PolicySet() (*cedar.PolicySet, error)  { return s.ps, nil }
func (s *StaticStore) Name() string                          { return s.name }
