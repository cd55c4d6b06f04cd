// Copyright 2025 Certen Protocol

package extension

import (
	"errors"
	"testing"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

type stubExtension struct {
	id   string
	deps []string
	h    Hooks
}

func (s stubExtension) ID() string             { return s.id }
func (s stubExtension) Dependencies() []string { return s.deps }
func (s stubExtension) Hooks() Hooks           { return s.h }

func TestManager_RejectsMissingDependency(t *testing.T) {
	m := NewManager()
	err := m.Register(stubExtension{id: "b", deps: []string{"a"}, h: NoopHooks{}})
	var missing *ErrMissingDependency
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
}

func TestManager_RejectsCycle(t *testing.T) {
	m := NewManager()
	if err := m.Register(stubExtension{id: "a", h: NoopHooks{}}); err != nil {
		t.Fatal(err)
	}
	// Register c->a, then re-register "a" depending on c: Register does
	// not reject a repeated ID, so this closes the cycle a->c->a.
	if err := m.Register(stubExtension{id: "c", deps: []string{"a"}, h: NoopHooks{}}); err != nil {
		t.Fatal(err)
	}
	err := m.Register(stubExtension{id: "a", deps: []string{"c"}, h: NoopHooks{}})
	var cycle *ErrCycle
	if !errors.As(err, &cycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestManager_DisableBlockedByActiveDependents(t *testing.T) {
	m := NewManager()
	if err := m.Register(stubExtension{id: "a", h: NoopHooks{}}); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(stubExtension{id: "b", deps: []string{"a"}, h: NoopHooks{}}); err != nil {
		t.Fatal(err)
	}
	err := m.Disable("a")
	var active *ErrActiveDependents
	if !errors.As(err, &active) {
		t.Fatalf("expected ErrActiveDependents, got %v", err)
	}

	if err := m.Disable("b"); err != nil {
		t.Fatalf("expected disabling the dependent first to succeed: %v", err)
	}
	if err := m.Disable("a"); err != nil {
		t.Fatalf("expected disabling a now that its dependent is disabled: %v", err)
	}
}

type countingHooks struct {
	NoopHooks
	calls *int
}

func (c countingHooks) PreValidate(msg *frosttypes.FrostMessage) error {
	*c.calls++
	return nil
}

func TestManager_FanoutCallsEveryEnabledExtensionInOrder(t *testing.T) {
	m := NewManager()
	calls := 0
	if err := m.Register(stubExtension{id: "a", h: countingHooks{calls: &calls}}); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(stubExtension{id: "b", deps: []string{"a"}, h: countingHooks{calls: &calls}}); err != nil {
		t.Fatal(err)
	}

	msg := &frosttypes.FrostMessage{}
	if err := m.Hooks().PreValidate(msg); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected both enabled extensions to be invoked, got %d calls", calls)
	}

	if err := m.Disable("b"); err != nil {
		t.Fatal(err)
	}
	if err := m.Hooks().PreValidate(msg); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("expected only the remaining enabled extension to be invoked, got %d total calls", calls)
	}
}
