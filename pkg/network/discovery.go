// Copyright 2025 Certen Protocol

package network

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// DiscoveryConfig tunes a PeerDiscovery implementation, per spec §4.5
// and original_source/src/network/discovery.rs's DiscoveryConfig.
type DiscoveryConfig struct {
	BootstrapNodes            []string
	ReplicationInterval       time.Duration
	RecordTTL                 time.Duration
	QueryTimeout              time.Duration
	MaxPeers                  int
	MinPeers                  int
	EnableProviderRecords     bool
	ProviderAnnounceInterval  time.Duration
}

// DefaultDiscoveryConfig mirrors the teacher's defaults.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		ReplicationInterval:      5 * time.Minute,
		RecordTTL:                2 * time.Hour,
		QueryTimeout:             time.Minute,
		MaxPeers:                 50,
		MinPeers:                 10,
		EnableProviderRecords:    true,
		ProviderAnnounceInterval: 30 * time.Minute,
	}
}

// DiscoveryMetrics is the observable snapshot of a discovery round.
type DiscoveryMetrics struct {
	DiscoveredPeers         uint64
	SuccessfulAnnouncements uint64
	FailedAnnouncements     uint64
	CachedPeers             int
	LastDiscovery           time.Time
}

// PeerDiscovery finds and announces peers, per spec §4.5.
type PeerDiscovery interface {
	DiscoverPeers(ctx context.Context) ([]frosttypes.Peer, error)
	Announce(ctx context.Context) error
	GetPeers() []frosttypes.Peer
	NeedsMorePeers() bool
	Metrics() DiscoveryMetrics
}

// providerRecord is one entry in the discovery service's provider table.
type providerRecord struct {
	peer        frosttypes.Peer
	announcedAt time.Time
}

// PeerLookup resolves a bootstrap address to a Peer, the narrow contract
// KademliaDiscovery needs from the transport/dialing layer without
// depending on it directly.
type PeerLookup interface {
	Lookup(ctx context.Context, address string) (frosttypes.Peer, error)
}

// KademliaDiscovery is a Kademlia-shaped peer discovery service: known
// peers are ranked by the XOR distance of their hashed IDs to a local
// node ID, and DiscoverPeers returns the closest ones. Peers are learned
// only from bootstrap lookups and AddPeer; there are no k-buckets and no
// iterative network queries. Grounded on
// original_source/src/network/discovery.rs's KademliaPeerDiscovery (the
// pack carries no libp2p Kademlia binding in go.mod, so the DHT shape is
// reproduced directly over frosttypes.Peer rather than through a
// third-party Kademlia crate).
type KademliaDiscovery struct {
	selfID  [32]byte
	cfg     DiscoveryConfig
	lookup  PeerLookup

	mu          sync.RWMutex
	known       map[string]frosttypes.Peer
	providers   map[string]providerRecord
	lastQueried time.Time
	metrics     DiscoveryMetrics
}

// NewKademliaDiscovery constructs a discovery service identified by
// nodeID (typically the local node's public key or listen address,
// hashed to a fixed-width distance metric).
func NewKademliaDiscovery(nodeID string, cfg DiscoveryConfig, lookup PeerLookup) *KademliaDiscovery {
	return &KademliaDiscovery{
		selfID:    sha256.Sum256([]byte(nodeID)),
		cfg:       cfg,
		lookup:    lookup,
		known:     make(map[string]frosttypes.Peer),
		providers: make(map[string]providerRecord),
	}
}

func distance(a, b [32]byte) uint64 {
	var x [32]byte
	for i := range a {
		x[i] = a[i] ^ b[i]
	}
	return binary.BigEndian.Uint64(x[:8])
}

func peerDistanceKey(selfID [32]byte, peerID string) uint64 {
	h := sha256.Sum256([]byte(peerID))
	return distance(selfID, h)
}

// DiscoverPeers bootstraps from the configured nodes (if not already
// known) and returns the peers closest to the local node ID, up to
// MaxPeers, per spec §4.5's "needs_more_peers" gating.
func (d *KademliaDiscovery) DiscoverPeers(ctx context.Context) ([]frosttypes.Peer, error) {
	if d.NeedsMorePeers() {
		if err := d.bootstrap(ctx); err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	peers := make([]frosttypes.Peer, 0, len(d.known))
	for _, p := range d.known {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool {
		return peerDistanceKey(d.selfID, peers[i].ID) < peerDistanceKey(d.selfID, peers[j].ID)
	})
	if len(peers) > d.cfg.MaxPeers {
		peers = peers[:d.cfg.MaxPeers]
	}

	d.metrics.DiscoveredPeers += uint64(len(peers))
	d.metrics.LastDiscovery = time.Now()
	d.lastQueried = time.Now()
	return peers, nil
}

func (d *KademliaDiscovery) bootstrap(ctx context.Context) error {
	if d.lookup == nil {
		return nil
	}
	for _, addr := range d.cfg.BootstrapNodes {
		qctx, cancel := context.WithTimeout(ctx, d.cfg.QueryTimeout)
		peer, err := d.lookup.Lookup(qctx, addr)
		cancel()
		if err != nil {
			d.mu.Lock()
			d.metrics.FailedAnnouncements++
			d.mu.Unlock()
			continue
		}
		d.mu.Lock()
		d.known[peer.ID] = peer
		d.mu.Unlock()
	}
	return nil
}

// Announce counts a provider announcement in SuccessfulAnnouncements
// when EnableProviderRecords is set, and is a no-op otherwise. It writes
// no provider record and sends nothing to any peer.
func (d *KademliaDiscovery) Announce(ctx context.Context) error {
	if !d.cfg.EnableProviderRecords {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.SuccessfulAnnouncements++
	return nil
}

// GetPeers returns every currently known peer without triggering a new
// discovery round.
func (d *KademliaDiscovery) GetPeers() []frosttypes.Peer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	peers := make([]frosttypes.Peer, 0, len(d.known))
	for _, p := range d.known {
		peers = append(peers, p)
	}
	return peers
}

// AddPeer registers a peer learned through some other channel (e.g. a
// routing-table update or an inbound connection), per the original's
// RoutingUpdated event.
func (d *KademliaDiscovery) AddPeer(peer frosttypes.Peer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[peer.ID] = peer
}

// NeedsMorePeers reports whether the known-peer count is below MinPeers,
// per spec §4.5.
func (d *KademliaDiscovery) NeedsMorePeers() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.known) < d.cfg.MinPeers
}

// Metrics returns a snapshot of this discovery service's counters.
func (d *KademliaDiscovery) Metrics() DiscoveryMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m := d.metrics
	m.CachedPeers = len(d.known)
	return m
}
