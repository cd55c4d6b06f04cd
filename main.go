// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frost-protocol/frost/pkg/config"
	"github.com/frost-protocol/frost/pkg/crypto/bls_zkp"
	"github.com/frost-protocol/frost/pkg/extension"
	"github.com/frost-protocol/frost/pkg/finality"
	"github.com/frost-protocol/frost/pkg/frosttypes"
	"github.com/frost-protocol/frost/pkg/message"
	"github.com/frost-protocol/frost/pkg/network"
	"github.com/frost-protocol/frost/pkg/resilience"
	"github.com/frost-protocol/frost/pkg/routing"
	"github.com/frost-protocol/frost/pkg/stateproof"
	"github.com/frost-protocol/frost/pkg/telemetry"
)

// node bundles every FROST component (C1-C8) wired together for one
// running instance, per spec §6's "a host process constructs one of
// each and threads them together explicitly" design note (DESIGN.md
// decision #3: no hidden globals).
type node struct {
	cfg *config.Config
	log *log.Logger

	breakers *resilience.PerChainBreakers
	limiters *resilience.PerChainLimiters
	recovery *resilience.RecoveryManager

	finalityRegistry *finality.Registry

	proofCache      *stateproof.ProofCache
	proofRegistry   *stateproof.Registry

	extensions *extension.Manager
	pipeline   *message.Pipeline

	topology *routing.Topology
	router   *routing.Router

	transport     network.Transport
	pool          *network.ConnectionPool
	discovery     *network.KademliaDiscovery
	backpressure  *network.BackpressureController
	reputation    *network.ReputationTracker

	telemetry *telemetry.Recorder
}

func main() {
	configPath := flag.String("config", "frost.yaml", "path to FROST configuration file")
	flag.Parse()

	logger := log.New(os.Stderr, "frost: ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	n, err := newNode(cfg, logger)
	if err != nil {
		logger.Fatalf("build node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := n.transport.Init(ctx); err != nil {
		logger.Fatalf("init transport: %v", err)
	}

	srv := n.startMonitoringServer()
	logger.Printf("node %s listening for peers on %s, metrics on %s%s",
		cfg.NodeID, cfg.Network.ListenAddr, cfg.Monitoring.MetricsAddr, cfg.Monitoring.MetricsPath)

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("monitoring server shutdown: %v", err)
	}
}

// newNode constructs every FROST component from cfg, wiring C1
// (resilience) under C2 (finality) and C6 (routing), C3 (stateproof) and
// a finality-backed C4 (message) pipeline fed by C7 (extension) hooks,
// and C5 (network) behind C8 (telemetry).
func newNode(cfg *config.Config, logger *log.Logger) (*node, error) {
	n := &node{cfg: cfg, log: logger}

	circuitCfg := resilience.CircuitConfig{
		FailureThreshold: cfg.Routing.FailureThreshold,
		SuccessThreshold: cfg.Routing.SuccessThreshold,
		OpenTimeout:      cfg.Routing.OpenTimeout.Value(),
	}
	n.breakers = resilience.NewPerChainBreakers(circuitCfg)
	n.limiters = resilience.NewPerChainLimiters(cfg.Finality.RateLimit.Limit, cfg.Finality.RateLimit.Window.Value())

	retryPolicy := resilience.RetryPolicy{
		MaxRetries:     cfg.Retry.MaxRetries,
		BaseDelay:      cfg.Retry.BaseDelay.Value(),
		MaxDelay:       cfg.Retry.MaxDelay.Value(),
		JitterFraction: cfg.Retry.JitterFraction,
	}
	n.recovery = resilience.NewRecoveryManager(circuitCfg, cfg.Finality.RateLimit.Limit,
		cfg.Finality.RateLimit.Window.Value(), retryPolicy, cfg.Retry.BudgetMax, cfg.Retry.BudgetWindow.Value())

	n.telemetry = telemetry.NewRecorder()

	var err error
	n.finalityRegistry, err = buildFinalityRegistry(cfg, n.limiters, cfg.Finality.CacheTTL.Value())
	if err != nil {
		return nil, fmt.Errorf("build finality registry: %w", err)
	}

	n.proofCache = stateproof.NewProofCache(stateproof.DefaultCacheConfig())
	n.proofRegistry = stateproof.NewRegistry(n.proofCache)
	n.proofRegistry.Register(&stateproof.BasicVerifier{})
	n.proofRegistry.Register(&stateproof.MerkleVerifier{})
	n.proofRegistry.Register(&stateproof.ValidityVerifier{})
	n.proofRegistry.Register(&stateproof.CustomVerifier{})

	zkVerifier := &stateproof.ZKVerifier{}
	if cfg.Proofs.ZKVerifyingKeyPath != "" {
		key, err := loadZKVerifyingKey(cfg.Proofs.ZKVerifyingKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load zk verifying key: %w", err)
		}
		zkVerifier.Default = key
	}
	n.proofRegistry.Register(zkVerifier)

	n.extensions = extension.NewManager()
	n.pipeline = message.NewPipeline(n.extensions.Hooks())
	n.pipeline.SetProofVerifier(n.proofRegistry)
	n.pipeline.SetStateVerifier(&registryStateVerifier{registry: n.finalityRegistry})

	n.topology = routing.NewTopology()
	for chainName, rules := range cfg.Finality.Chains {
		n.topology.AddNode(frosttypes.ChainID(chainName), frosttypes.TopologyNode{
			Status: frosttypes.TopologyActive,
			Metadata: frosttypes.TopologyNodeMetadata{
				Name:      chainName,
				ChainType: frosttypes.ChainFamily(rules.Family),
			},
		})
	}
	n.router = routing.NewRouter(n.topology, circuitCfg)

	n.transport = network.NewTCPTransport(cfg.Network.Pool.ConnectionTimeout.Value())
	n.pool = network.NewConnectionPool(
		network.PoolConfig{
			MinIdlePerPeer:     cfg.Network.Pool.MinIdlePerPeer,
			MaxPerPeer:         cfg.Network.Pool.MaxPerPeer,
			MaxLifetime:        cfg.Network.Pool.MaxLifetime.Value(),
			IdleTimeout:        cfg.Network.Pool.IdleTimeout.Value(),
			ConnectionTimeout:  cfg.Network.Pool.ConnectionTimeout.Value(),
			ValidationInterval: cfg.Network.Pool.ValidationInterval.Value(),
		},
		network.DynamicPoolConfig{
			AdaptationRate:      cfg.Network.Dynamic.AdaptationRate,
			MaxGrowthRate:       cfg.Network.Dynamic.MaxGrowthRate,
			MinTotalConnections: cfg.Network.Dynamic.MinTotalConnections,
			MaxTotalConnections: cfg.Network.Dynamic.MaxTotalConnections,
			ScaleUpThreshold:    cfg.Network.Dynamic.ScaleUpThreshold,
			ScaleDownThreshold:  cfg.Network.Dynamic.ScaleDownThreshold,
		},
		n.transport,
	)
	n.backpressure = network.NewBackpressureController(network.BackpressureConfig{
		MaxConcurrentRequests: cfg.Network.Backpressure.MaxConcurrentRequests,
		MaxQueueSize:          cfg.Network.Backpressure.MaxQueueSize,
		PressureThreshold:     cfg.Network.Backpressure.PressureThreshold,
	})
	n.reputation = network.NewReputationTracker(5 * time.Minute)
	n.discovery = network.NewKademliaDiscovery(cfg.NodeID, network.DiscoveryConfig{
		BootstrapNodes:      cfg.Network.Discovery.BootstrapNodes,
		ReplicationInterval: cfg.Network.Discovery.ReplicationInterval.Value(),
		RecordTTL:           cfg.Network.Discovery.RecordTTL.Value(),
		QueryTimeout:        cfg.Network.Discovery.QueryTimeout.Value(),
		MaxPeers:            cfg.Network.Discovery.MaxPeers,
		MinPeers:            cfg.Network.Discovery.MinPeers,
	}, transportPeerLookup{n.transport})

	return n, nil
}

// buildFinalityRegistry constructs one FinalityVerifier per configured
// chain, selected by ChainRulesConfig.Family, each wrapped with a
// CachingVerifier and RateLimitedVerifier per spec §4.2's "verifiers are
// decorated with caching and rate limiting, not reimplemented per
// layer" design note.
func buildFinalityRegistry(cfg *config.Config, limiters *resilience.PerChainLimiters, cacheTTL time.Duration) (*finality.Registry, error) {
	registry := finality.NewRegistry()

	for chainName, rc := range cfg.Finality.Chains {
		chain := frosttypes.ChainID(chainName)
		rules := frosttypes.ChainRules{
			Chain:               chain,
			Family:              frosttypes.ChainFamily(rc.Family),
			MinConfirmations:    rc.MinConfirmations,
			ConfidenceThreshold: rc.ConfidenceThreshold,
			MaxForkDepth:        rc.MaxForkDepth,
			MinParticipation:    rc.MinParticipation,
		}

		var verifier finality.FinalityVerifier
		switch rules.Family {
		case frosttypes.ChainFamilyEthereumPoW:
			verifier = finality.NewEthereumPoWVerifier(rules)
		case frosttypes.ChainFamilyEthereumBeacon:
			verifier = finality.NewEthereumBeaconVerifier(rules)
		case frosttypes.ChainFamilyCosmos:
			verifier = finality.NewCosmosVerifier(rules)
		case frosttypes.ChainFamilySubstrate:
			verifier = finality.NewSubstrateVerifier(rules)
		case frosttypes.ChainFamilySolana:
			verifier = finality.NewSolanaVerifier(rules)
		default:
			return nil, fmt.Errorf("chain %s: unsupported family %q", chainName, rc.Family)
		}

		verifier = finality.NewCachingVerifier(verifier, cacheTTL)
		verifier = finality.NewRateLimitedVerifier(verifier, limiters.For(chainName), cfg.Finality.RateLimit.Window.Value())
		registry.Register(chain, verifier)
	}

	return registry, nil
}

// loadZKVerifyingKey opens a Groth16 verification key file and wraps it
// as a stateproof.ZKVerifyingKey, wiring pkg/crypto/bls_zkp's
// verify-only Groth16 checker into C3's ZK proof dispatch.
func loadZKVerifyingKey(path string) (*bls_zkp.Groth16Verifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return bls_zkp.LoadGroth16Verifier(f)
}

// registryStateVerifier adapts finality.Registry's per-chain dispatch to
// message.StateVerifier's simplified single-call surface, looking the
// verifier up by the block's chain on every call.
type registryStateVerifier struct {
	registry *finality.Registry
}

func (a *registryStateVerifier) VerifyFinality(block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	verifier, err := a.registry.MustGet(block.Chain)
	if err != nil {
		return false, 0, err
	}
	rules := frosttypes.ChainRules{Chain: block.Chain, Family: verifier.Family()}
	return verifier.VerifyFinality(context.Background(), rules, block, signal)
}

// transportPeerLookup adapts a network.Transport's Connect method to
// network.PeerLookup, so KademliaDiscovery can resolve a bootstrap
// address through the same transport the connection pool uses.
type transportPeerLookup struct {
	transport network.Transport
}

func (l transportPeerLookup) Lookup(ctx context.Context, address string) (frosttypes.Peer, error) {
	return l.transport.Connect(ctx, address)
}

// startMonitoringServer exposes C8's Prometheus registry and a liveness
// endpoint, in the style of the teacher's HTTP health/metrics listener.
func (n *node) startMonitoringServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle(n.cfg.Monitoring.MetricsPath, promhttp.HandlerFor(n.telemetry.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := n.router.Health()
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "node=%s health=%s\n", n.cfg.NodeID, health)
	})

	srv := &http.Server{Addr: n.cfg.Monitoring.MetricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.log.Printf("monitoring server: %v", err)
		}
	}()
	return srv
}
