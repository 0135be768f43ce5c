// Package cedarval models the algebraic request the translation layer
// produces: entities and restricted-expression values (spec.md §3), kept
// independent of the policy engine's own wire types so every translator can
// be tested without constructing a live Cedar entity store. internal/engine
// converts these into github.com/cedar-policy/cedar-go values at the
// evaluation boundary.
package cedarval

import "fmt"

// Kind discriminates the variants of a restricted expression (spec.md §3).
type Kind int

const (
	KindString Kind = iota
	KindLong
	KindDecimal
	KindBoolean
	KindIPAddr
	KindSet
	KindRecord
	KindEntityRef
)

// EntityUID is a (type, id) pair, unique within a single request's entity set.
type EntityUID struct {
	Type string
	ID   string
}

func (u EntityUID) String() string {
	return fmt.Sprintf("%s::%q", u.Type, u.ID)
}

// Value is a restricted expression: exactly one of the fields indicated by
// Kind is meaningful.
type Value struct {
	Kind Kind

	Str  string // KindString, KindDecimal (source-text form), KindIPAddr
	Long int64  // KindLong
	Bool bool   // KindBoolean

	Set    []Value          // KindSet, order irrelevant
	Record map[string]Value // KindRecord, unordered

	Entity EntityUID // KindEntityRef
}

func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Long(n int64) Value     { return Value{Kind: KindLong, Long: n} }
func Decimal(s string) Value { return Value{Kind: KindDecimal, Str: s} }
func Bool(b bool) Value      { return Value{Kind: KindBoolean, Bool: b} }
func IPAddr(s string) Value  { return Value{Kind: KindIPAddr, Str: s} }
func Set(vs ...Value) Value  { return Value{Kind: KindSet, Set: vs} }
func Record(m map[string]Value) Value {
	return Value{Kind: KindRecord, Record: m}
}
func EntityRef(u EntityUID) Value { return Value{Kind: KindEntityRef, Entity: u} }

// Request is the principal/action/resource triple the policy engine decides
// over (spec.md §3); both the authz and admission pipelines produce one.
type Request struct {
	Principal EntityUID
	Action    EntityUID
	Resource  EntityUID
}

// Entity is an identified node in the authorization graph (spec.md §3).
type Entity struct {
	UID     EntityUID
	Attrs   map[string]Value
	Parents []EntityUID
}

// NewEntity builds an Entity with an initialized attribute map.
func NewEntity(uid EntityUID) Entity {
	return Entity{UID: uid, Attrs: map[string]Value{}}
}

// EntitySet is the request-scoped collection of entities handed to the
// policy engine (spec.md §3's "set of reachable entities").
type EntitySet struct {
	byUID   map[EntityUID]Entity
	ordered []EntityUID
}

// NewEntitySet builds an empty EntitySet.
func NewEntitySet() *EntitySet {
	return &EntitySet{byUID: map[EntityUID]Entity{}}
}

// Add inserts or replaces an entity. Spec.md §3 invariant 2 (no two entities
// share a (type, id)) is the caller's responsibility; Add does not itself
// detect collisions: adding an entity whose UID is already present replaces
// the stored entity and keeps its original insertion position.
func (s *EntitySet) Add(e Entity) {
	if _, exists := s.byUID[e.UID]; !exists {
		s.ordered = append(s.ordered, e.UID)
	}
	s.byUID[e.UID] = e
}

// Get returns the entity for uid, if present.
func (s *EntitySet) Get(uid EntityUID) (Entity, bool) {
	e, ok := s.byUID[uid]
	return e, ok
}

// All returns entities in insertion order (useful for deterministic tests).
func (s *EntitySet) All() []Entity {
	out := make([]Entity, 0, len(s.ordered))
	for _, uid := range s.ordered {
		out = append(out, s.byUID[uid])
	}
	return out
}

// Len reports the number of distinct entities in the set.
func (s *EntitySet) Len() int { return len(s.ordered) }
