// Copyright 2025 Certen Protocol

package network

import (
	"context"
	"testing"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

type fakeTransport struct {
	dials int
}

func (f *fakeTransport) Init(ctx context.Context) error { return nil }
func (f *fakeTransport) Connect(ctx context.Context, address string) (frosttypes.Peer, error) {
	f.dials++
	return frosttypes.Peer{ID: "conn", Info: frosttypes.PeerInfo{Address: address}}, nil
}
func (f *fakeTransport) Disconnect(ctx context.Context, peer frosttypes.Peer) error { return nil }
func (f *fakeTransport) SendData(ctx context.Context, peer frosttypes.Peer, data []byte) (int, error) {
	return len(data), nil
}
func (f *fakeTransport) ReceiveData(ctx context.Context, peer frosttypes.Peer) ([]byte, error) {
	return nil, nil
}
func (f *fakeTransport) IsConnected(peer frosttypes.Peer) bool { return true }

func TestConnectionPool_PeerLimitReached(t *testing.T) {
	tr := &fakeTransport{}
	cfg := PoolConfig{MinIdlePerPeer: 1, MaxPerPeer: 1}
	pool := NewConnectionPool(cfg, DefaultDynamicPoolConfig(), tr)
	peer := frosttypes.Peer{ID: "p1", Info: frosttypes.PeerInfo{Address: "127.0.0.1:1"}}

	acq1, err := pool.Acquire(context.Background(), peer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Acquire(context.Background(), peer); err == nil {
		t.Fatal("expected second acquire to hit the per-peer limit")
	}
	acq1.Release()

	acq2, err := pool.Acquire(context.Background(), peer)
	if err != nil {
		t.Fatalf("expected acquire to succeed after release: %v", err)
	}
	acq2.Release()

	if tr.dials != 1 {
		t.Fatalf("expected exactly one dial (connection reused after release), got %d", tr.dials)
	}
}

func TestReputationFormula(t *testing.T) {
	// Perfect peer: no failures, no latency, max quality.
	if r := Reputation(0, 0, 1.0); r < 0.999 {
		t.Fatalf("expected reputation ~1.0 for a perfect peer, got %f", r)
	}
	// Worst peer: always fails, maxed-out latency, zero quality.
	if r := Reputation(1.0, time.Second, 0); r > 0.01 {
		t.Fatalf("expected reputation ~0.0 for a failing peer, got %f", r)
	}
}

func TestConnectionPool_CleanupRespectsMinIdle(t *testing.T) {
	tr := &fakeTransport{}
	cfg := PoolConfig{MinIdlePerPeer: 1, MaxPerPeer: 4, IdleTimeout: 0}
	pool := NewConnectionPool(cfg, DefaultDynamicPoolConfig(), tr)
	peer := frosttypes.Peer{ID: "p1", Info: frosttypes.PeerInfo{Address: "127.0.0.1:1"}}

	acq, err := pool.Acquire(context.Background(), peer)
	if err != nil {
		t.Fatal(err)
	}
	acq.Release()

	if err := pool.Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := pool.Metrics().TotalConnections; got != 1 {
		t.Fatalf("expected min-idle connection to survive cleanup, got %d total connections", got)
	}
}
