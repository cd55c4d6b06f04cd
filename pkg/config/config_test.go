// Copyright 2025 Certen Protocol

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_AppliesDefaultsAndEnvSubstitution(t *testing.T) {
	t.Setenv("FROST_NODE_ID", "node-1")

	dir := t.TempDir()
	path := filepath.Join(dir, "frost.yaml")
	doc := `
environment: dev
node_id: ${FROST_NODE_ID}
network:
  listen_addr: "0.0.0.0:9999"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NodeID != "node-1" {
		t.Fatalf("expected env substitution to set node_id, got %q", cfg.NodeID)
	}
	if cfg.Network.ListenAddr != "0.0.0.0:9999" {
		t.Fatalf("expected explicit listen_addr to be preserved, got %q", cfg.Network.ListenAddr)
	}
	if cfg.Network.Pool.MaxPerPeer != 8 {
		t.Fatalf("expected default MaxPerPeer of 8, got %d", cfg.Network.Pool.MaxPerPeer)
	}
	if cfg.Retry.BaseDelay.Value() != time.Second {
		t.Fatalf("expected default base delay of 1s, got %v", cfg.Retry.BaseDelay.Value())
	}
}

func TestLoad_EnvDefaultFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frost.yaml")
	doc := `
node_id: ${FROST_UNSET_VAR:-fallback-node}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NodeID != "fallback-node" {
		t.Fatalf("expected unset env var to fall back to its default, got %q", cfg.NodeID)
	}
}
