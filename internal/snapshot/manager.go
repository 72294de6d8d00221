// Package snapshot implements the double-buffered engine manager: a
// writer-owned primary and a reader-visible secondary, rotated by an
// atomic pointer swap so readers never observe a torn state.
package snapshot

import (
	"sync/atomic"

	"github.com/orderflow/matchbook/internal/matching"
)

// Manager holds two *matching.Engine instances behind atomic pointers.
// The executor task is the only writer and must only ever call Primary;
// every reader task must only ever call Secondary.
type Manager struct {
	primary   atomic.Pointer[matching.Engine]
	secondary atomic.Pointer[matching.Engine]
}

// NewManager constructs a manager with two independent fresh engines.
func NewManager(id, symbol string, storeCapacity, queueCapHint int) *Manager {
	m := &Manager{}
	m.primary.Store(matching.NewEngine(id, symbol, storeCapacity, queueCapHint))
	m.secondary.Store(matching.NewEngine(id, symbol, storeCapacity, queueCapHint))
	return m
}

// Primary returns the writer-owned engine. Only the executor task may
// mutate it; the snapshot task also calls this (via Snapshot and for the
// engine id it logs).
func (m *Manager) Primary() *matching.Engine {
	return m.primary.Load()
}

// Secondary returns the reader-visible engine. Safe for any number of
// concurrent readers; none of them may mutate it.
func (m *Manager) Secondary() *matching.Engine {
	return m.secondary.Load()
}

// Snapshot deep-clones primary and atomically publishes the clone as the
// new secondary. Always take a fresh Secondary() reference after calling
// this; a reference obtained beforehand still points at the old snapshot.
func (m *Manager) Snapshot() {
	fresh := m.primary.Load().Clone()
	m.secondary.Store(fresh)
}
