package compiler

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// scopePrefix is the attribute prefix shared by every scope marker.
const scopePrefix = "data-lf-"

// DeriveScopeID returns the short scope token for a component name.
// It is a pure function: equal names always yield equal ids within and
// across processes. Distinct names colliding is possible (the token is a
// 32-bit hash) and is detected by the ScopeRegistry, never silently fixed.
func DeriveScopeID(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%08x", h.Sum32())
}

// ScopeMarker returns the marker attribute name for a scope id.
func ScopeMarker(scopeID string) string {
	return scopePrefix + scopeID
}

// InstanceID returns the deterministic identity for one import declaration:
// a hash of the import alias and the importing component's scope id. All
// usages of the declaration share it; per-usage ids append "-<n>".
func InstanceID(alias, importerScopeID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(alias))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(importerScopeID))
	return fmt.Sprintf("%08x", h.Sum32())
}

// ScopeRegistry tracks which component name owns each scope id within one
// compiler session. It exists to detect hash collisions between distinct
// component names; registering the same name twice is not a collision.
type ScopeRegistry struct {
	mu sync.Mutex

	// byID maps scope ids to the first component name registered for them.
	byID map[string]string

	// names holds every distinct registered name in registration order.
	names []string
	seen  map[string]struct{}
}

// NewScopeRegistry creates an empty registry.
func NewScopeRegistry() *ScopeRegistry {
	return &ScopeRegistry{
		byID: make(map[string]string),
		seen: make(map[string]struct{}),
	}
}

// Register records that name owns scopeID. It returns true when a
// different name already owns the id (a collision); the first registration
// and re-registrations of the same name return false.
func (r *ScopeRegistry) Register(scopeID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[name]; !ok {
		r.seen[name] = struct{}{}
		r.names = append(r.names, name)
	}

	owner, ok := r.byID[scopeID]
	if !ok {
		r.byID[scopeID] = name
		return false
	}
	return owner != name
}

// Owner returns the name that first registered scopeID.
func (r *ScopeRegistry) Owner(scopeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.byID[scopeID]
	return owner, ok
}

// Components returns all registered component names in registration order.
func (r *ScopeRegistry) Components() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
