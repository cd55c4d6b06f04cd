// Copyright 2025 Certen Protocol

package extension

import (
	"fmt"
	"sort"
	"sync"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// Manager registers Extensions in dependency order and fans out each
// Hooks call to every registered extension in that order, per spec §4.7:
// "Dependency ordering among extensions is a DAG checked on
// registration" and "enabling an extension requires its dependencies to
// already be enabled; disabling one with active dependents is
// forbidden". Grounded on original_source/src/extensions/manager.rs and
// the teacher's pkg/strategy registry's registration-ordering pattern.
type Manager struct {
	mu         sync.RWMutex
	extensions map[string]Extension
	enabled    map[string]bool
	order      []string // topological registration order
}

// NewManager constructs an empty extension manager.
func NewManager() *Manager {
	return &Manager{
		extensions: make(map[string]Extension),
		enabled:    make(map[string]bool),
	}
}

// ErrCycle is returned when registering ext would introduce a dependency
// cycle.
type ErrCycle struct{ Path []string }

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("extension: dependency cycle detected: %v", e.Path)
}

// ErrMissingDependency is returned when ext declares a dependency that
// is not yet registered.
type ErrMissingDependency struct {
	Extension, Dependency string
}

func (e *ErrMissingDependency) Error() string {
	return fmt.Sprintf("extension %q depends on unregistered extension %q", e.Extension, e.Dependency)
}

// ErrActiveDependents is returned when disabling an extension that other
// enabled extensions still depend on.
type ErrActiveDependents struct {
	Extension  string
	Dependents []string
}

func (e *ErrActiveDependents) Error() string {
	return fmt.Sprintf("extension %q has active dependents: %v", e.Extension, e.Dependents)
}

// Register adds ext to the manager and enables it, after verifying its
// declared dependencies are already registered and that doing so does
// not create a cycle.
func (m *Manager) Register(ext Extension) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := ext.ID()
	for _, dep := range ext.Dependencies() {
		if _, ok := m.extensions[dep]; !ok {
			return &ErrMissingDependency{Extension: id, Dependency: dep}
		}
	}

	candidate := make(map[string][]string, len(m.extensions)+1)
	for existingID, existing := range m.extensions {
		candidate[existingID] = existing.Dependencies()
	}
	candidate[id] = ext.Dependencies()

	if cycle := findCycle(candidate, id); cycle != nil {
		return &ErrCycle{Path: cycle}
	}

	m.extensions[id] = ext
	m.enabled[id] = true
	m.order = append(m.order, id)
	return nil
}

// findCycle runs a DFS from start over the dependency graph, returning
// the cycle path if one exists.
func findCycle(graph map[string][]string, start string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(graph))
	var path []string

	var visit func(node string) []string
	visit = func(node string) []string {
		color[node] = gray
		path = append(path, node)
		for _, dep := range graph[node] {
			switch color[dep] {
			case gray:
				return append(append([]string{}, path...), dep)
			case white:
				if cyc := visit(dep); cyc != nil {
					return cyc
				}
			}
		}
		path = path[:len(path)-1]
		color[node] = black
		return nil
	}
	return visit(start)
}

// Disable marks id disabled, refusing if another enabled extension
// depends on it.
func (m *Manager) Disable(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dependents []string
	for otherID, ext := range m.extensions {
		if !m.enabled[otherID] {
			continue
		}
		for _, dep := range ext.Dependencies() {
			if dep == id {
				dependents = append(dependents, otherID)
			}
		}
	}
	if len(dependents) > 0 {
		sort.Strings(dependents)
		return &ErrActiveDependents{Extension: id, Dependents: dependents}
	}
	m.enabled[id] = false
	return nil
}

// Enable re-enables id, requiring every declared dependency to already
// be enabled.
func (m *Manager) Enable(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ext, ok := m.extensions[id]
	if !ok {
		return fmt.Errorf("extension: %q is not registered", id)
	}
	for _, dep := range ext.Dependencies() {
		if !m.enabled[dep] {
			return fmt.Errorf("extension: cannot enable %q, dependency %q is not enabled", id, dep)
		}
	}
	m.enabled[id] = true
	return nil
}

// active returns enabled extensions' Hooks, in registration order.
func (m *Manager) active() []Hooks {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hooks []Hooks
	for _, id := range m.order {
		if m.enabled[id] {
			hooks = append(hooks, m.extensions[id].Hooks())
		}
	}
	return hooks
}

// Hooks returns a Hooks implementation that fans out each call to every
// currently enabled extension, in registration order, stopping at the
// first error. This lets the message pipeline (C4) and finality clients
// (C2) invoke the full extension set through a single Hooks value.
func (m *Manager) Hooks() Hooks {
	return fanoutHooks{m}
}

type fanoutHooks struct{ m *Manager }

func (f fanoutHooks) PreValidate(msg *frosttypes.FrostMessage) error {
	for _, h := range f.m.active() {
		if err := h.PreValidate(msg); err != nil {
			return err
		}
	}
	return nil
}

func (f fanoutHooks) ValidateProof(msg *frosttypes.FrostMessage) error {
	for _, h := range f.m.active() {
		if err := h.ValidateProof(msg); err != nil {
			return err
		}
	}
	return nil
}

func (f fanoutHooks) ValidateState(msg *frosttypes.FrostMessage) error {
	for _, h := range f.m.active() {
		if err := h.ValidateState(msg); err != nil {
			return err
		}
	}
	return nil
}

func (f fanoutHooks) PostValidate(msg *frosttypes.FrostMessage) error {
	for _, h := range f.m.active() {
		if err := h.PostValidate(msg); err != nil {
			return err
		}
	}
	return nil
}

func (f fanoutHooks) VerifyStateProof(sp *frosttypes.StateProof) error {
	for _, h := range f.m.active() {
		if err := h.VerifyStateProof(sp); err != nil {
			return err
		}
	}
	return nil
}

func (f fanoutHooks) VerifyFinality(block frosttypes.BlockRef, signal frosttypes.FinalitySignal) error {
	for _, h := range f.m.active() {
		if err := h.VerifyFinality(block, signal); err != nil {
			return err
		}
	}
	return nil
}

func (f fanoutHooks) HandleNetworkEvent(peer frosttypes.Peer, event NetworkEvent) error {
	for _, h := range f.m.active() {
		if err := h.HandleNetworkEvent(peer, event); err != nil {
			return err
		}
	}
	return nil
}
