// Copyright 2025 Certen Protocol
//
// FROST Configuration Loader
//
// This package loads FROST's configuration from YAML files with
// environment variable substitution, in the style of the teacher's
// original anchor configuration loader: ${VAR_NAME} / ${VAR_NAME:-default}
// placeholders are expanded before the document is parsed, and
// applyDefaults() fills in anything left unset.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is FROST's top-level configuration document, per spec §6:
// "Configuration types (FinalityConfig, RoutingConfig, NetworkConfig,
// PoolConfig, DynamicPoolConfig, RetryConfig) live beside their owning
// package".
type Config struct {
	Environment string `yaml:"environment"`
	NodeID      string `yaml:"node_id"`

	Finality FinalityConfig `yaml:"finality"`
	Routing  RoutingConfig  `yaml:"routing"`
	Network  NetworkConfig  `yaml:"network"`
	Retry    RetryConfig    `yaml:"retry"`
	Proofs   ProofsConfig   `yaml:"proofs"`

	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ProofsConfig configures C3's verifier registry: pluggable key
// material for proof types that need one.
type ProofsConfig struct {
	// ZKVerifyingKeyPath points at a Groth16 verification key exported
	// by the host's (out-of-core) proving pipeline for
	// pkg/crypto/bls_zkp's SimpleBLSCircuit. Left empty, ProofType::ZK
	// proofs are rejected until one is registered.
	ZKVerifyingKeyPath string `yaml:"zk_verifying_key_path"`
}

// FinalityConfig configures C2's verifiers: per-chain rules plus the
// shared rate-limit and cache settings wired by pkg/finality's
// RateLimitedVerifier and CachingVerifier decorators.
type FinalityConfig struct {
	Chains        map[string]ChainRulesConfig `yaml:"chains"`
	RateLimit     RateLimitConfig             `yaml:"rate_limit"`
	CacheTTL      Duration                    `yaml:"cache_ttl"`
}

// ChainRulesConfig mirrors frosttypes.ChainRules for YAML loading.
type ChainRulesConfig struct {
	Family              string   `yaml:"family"`
	MinConfirmations    uint64   `yaml:"min_confirmations"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	MaxForkDepth        uint64   `yaml:"max_fork_depth"`
	MinParticipation    float64  `yaml:"min_participation"`
}

// RateLimitConfig configures a pkg/resilience.RateLimiter.
type RateLimitConfig struct {
	Limit  uint32   `yaml:"limit"`
	Window Duration `yaml:"window"`
}

// RoutingConfig configures C6's Router: the circuit breaker every hop is
// gated behind.
type RoutingConfig struct {
	FailureThreshold uint32   `yaml:"failure_threshold"`
	SuccessThreshold uint32   `yaml:"success_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout"`
}

// NetworkConfig configures C5: transport, connection pooling, discovery,
// and backpressure.
type NetworkConfig struct {
	ListenAddr string              `yaml:"listen_addr"`
	Pool       PoolConfig          `yaml:"pool"`
	Dynamic    DynamicPoolConfig   `yaml:"dynamic_pool"`
	Discovery  DiscoveryConfigYAML `yaml:"discovery"`
	Backpressure BackpressureConfigYAML `yaml:"backpressure"`
}

// PoolConfig mirrors pkg/network.PoolConfig for YAML loading.
type PoolConfig struct {
	MinIdlePerPeer    int      `yaml:"min_idle_per_peer"`
	MaxPerPeer        int      `yaml:"max_per_peer"`
	MaxLifetime       Duration `yaml:"max_lifetime"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ConnectionTimeout Duration `yaml:"connection_timeout"`
	ValidationInterval Duration `yaml:"validation_interval"`
}

// DynamicPoolConfig mirrors pkg/network.DynamicPoolConfig for YAML
// loading.
type DynamicPoolConfig struct {
	AdaptationRate       float64 `yaml:"adaptation_rate"`
	MaxGrowthRate        float64 `yaml:"max_growth_rate"`
	MinTotalConnections  int     `yaml:"min_total_connections"`
	MaxTotalConnections  int     `yaml:"max_total_connections"`
	ScaleUpThreshold     float64 `yaml:"scale_up_threshold"`
	ScaleDownThreshold   float64 `yaml:"scale_down_threshold"`
}

// DiscoveryConfigYAML mirrors pkg/network.DiscoveryConfig for YAML
// loading (named distinctly to avoid colliding with the runtime type).
type DiscoveryConfigYAML struct {
	BootstrapNodes          []string `yaml:"bootstrap_nodes"`
	ReplicationInterval     Duration `yaml:"replication_interval"`
	RecordTTL               Duration `yaml:"record_ttl"`
	QueryTimeout            Duration `yaml:"query_timeout"`
	MaxPeers                int      `yaml:"max_peers"`
	MinPeers                int      `yaml:"min_peers"`
}

// BackpressureConfigYAML mirrors pkg/network.BackpressureConfig.
type BackpressureConfigYAML struct {
	MaxConcurrentRequests int     `yaml:"max_concurrent_requests"`
	MaxQueueSize          int     `yaml:"max_queue_size"`
	PressureThreshold     float64 `yaml:"pressure_threshold"`
}

// RetryConfig configures C1's RetryPolicy and shared RetryBudget.
type RetryConfig struct {
	MaxRetries     int      `yaml:"max_retries"`
	BaseDelay      Duration `yaml:"base_delay"`
	MaxDelay       Duration `yaml:"max_delay"`
	JitterFraction float64  `yaml:"jitter_fraction"`
	BudgetMax      int      `yaml:"budget_max"`
	BudgetWindow   Duration `yaml:"budget_window"`
}

// MonitoringConfig configures C8's telemetry endpoint, in the style of
// the teacher's MonitoringSettings.
type MonitoringConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
	MetricsPath string `yaml:"metrics_path"`
	LogLevel    string `yaml:"log_level"`
}

// Duration is a time.Duration that (un)marshals from YAML as a Go
// duration string ("30s", "5m"), per the teacher's anchor config loader.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// Load reads path, substitutes ${VAR_NAME}/${VAR_NAME:-default}
// environment placeholders, parses the YAML document, and fills unset
// fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in zero-valued fields with FROST's defaults,
// matching each owning package's own Default*Config() constructor so a
// config file only needs to override what differs.
func (c *Config) applyDefaults() {
	if c.Finality.RateLimit.Limit == 0 {
		c.Finality.RateLimit.Limit = 100
	}
	if c.Finality.RateLimit.Window == 0 {
		c.Finality.RateLimit.Window = Duration(time.Second)
	}
	if c.Finality.CacheTTL == 0 {
		c.Finality.CacheTTL = Duration(30 * time.Second)
	}

	if c.Routing.FailureThreshold == 0 {
		c.Routing.FailureThreshold = 5
	}
	if c.Routing.SuccessThreshold == 0 {
		c.Routing.SuccessThreshold = 2
	}
	if c.Routing.OpenTimeout == 0 {
		c.Routing.OpenTimeout = Duration(30 * time.Second)
	}

	if c.Network.ListenAddr == "" {
		c.Network.ListenAddr = "0.0.0.0:26656"
	}
	if c.Network.Pool.MinIdlePerPeer == 0 {
		c.Network.Pool.MinIdlePerPeer = 1
	}
	if c.Network.Pool.MaxPerPeer == 0 {
		c.Network.Pool.MaxPerPeer = 8
	}
	if c.Network.Pool.IdleTimeout == 0 {
		c.Network.Pool.IdleTimeout = Duration(2 * time.Minute)
	}
	if c.Network.Pool.ConnectionTimeout == 0 {
		c.Network.Pool.ConnectionTimeout = Duration(10 * time.Second)
	}
	if c.Network.Dynamic.AdaptationRate == 0 {
		c.Network.Dynamic.AdaptationRate = 0.2
	}
	if c.Network.Dynamic.MaxGrowthRate == 0 {
		c.Network.Dynamic.MaxGrowthRate = 0.5
	}
	if c.Network.Dynamic.MinTotalConnections == 0 {
		c.Network.Dynamic.MinTotalConnections = 4
	}
	if c.Network.Dynamic.MaxTotalConnections == 0 {
		c.Network.Dynamic.MaxTotalConnections = 256
	}
	if c.Network.Dynamic.ScaleUpThreshold == 0 {
		c.Network.Dynamic.ScaleUpThreshold = 0.7
	}
	if c.Network.Dynamic.ScaleDownThreshold == 0 {
		c.Network.Dynamic.ScaleDownThreshold = 0.2
	}
	if c.Network.Discovery.MaxPeers == 0 {
		c.Network.Discovery.MaxPeers = 64
	}
	if c.Network.Discovery.MinPeers == 0 {
		c.Network.Discovery.MinPeers = 8
	}
	if c.Network.Discovery.QueryTimeout == 0 {
		c.Network.Discovery.QueryTimeout = Duration(5 * time.Second)
	}
	if c.Network.Backpressure.MaxConcurrentRequests == 0 {
		c.Network.Backpressure.MaxConcurrentRequests = 256
	}
	if c.Network.Backpressure.MaxQueueSize == 0 {
		c.Network.Backpressure.MaxQueueSize = 1024
	}
	if c.Network.Backpressure.PressureThreshold == 0 {
		c.Network.Backpressure.PressureThreshold = 0.75
	}

	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = Duration(time.Second)
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = Duration(30 * time.Second)
	}
	if c.Retry.JitterFraction == 0 {
		c.Retry.JitterFraction = 0.2
	}
	if c.Retry.BudgetMax == 0 {
		c.Retry.BudgetMax = 10
	}
	if c.Retry.BudgetWindow == 0 {
		c.Retry.BudgetWindow = Duration(time.Minute)
	}

	if c.Monitoring.MetricsAddr == "" {
		c.Monitoring.MetricsAddr = "0.0.0.0:9090"
	}
	if c.Monitoring.MetricsPath == "" {
		c.Monitoring.MetricsPath = "/metrics"
	}
	if c.Monitoring.LogLevel == "" {
		c.Monitoring.LogLevel = "info"
	}
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// getEnvInt reads an integer environment variable, falling back to
// defaultValue, per the teacher's getEnvInt idiom — retained for hosts
// that prefer a pure env-var override layer above the YAML file.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
