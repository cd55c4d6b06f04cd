// Copyright 2025 Certen Protocol

package resilience

import (
	"sync"
	"time"
)

// record is one chain's resilience state.
type record struct {
	breaker      *CircuitBreaker
	limiter      *RateLimiter
	budget       *RetryBudget
	retryPolicy  RetryPolicy
	lastRecovery time.Time
	errorHistory []Code
}

const maxErrorHistory = 32

// RecoveryManager selects a recovery action per chain based on the
// category of error observed, composing a CircuitBreaker, RateLimiter,
// and RetryBudget per chain. One manager is typically shared by all
// components touching a given set of chains.
type RecoveryManager struct {
	circuitCfg CircuitConfig
	limiterRate uint32
	limiterWindow time.Duration
	retryPolicy RetryPolicy
	budgetMax   int
	budgetWindow time.Duration

	mu sync.Mutex
	m  map[string]*record
}

// NewRecoveryManager constructs a manager with the given defaults, applied
// to every chain the first time it is observed.
func NewRecoveryManager(circuitCfg CircuitConfig, limiterRate uint32, limiterWindow time.Duration, retryPolicy RetryPolicy, budgetMax int, budgetWindow time.Duration) *RecoveryManager {
	return &RecoveryManager{
		circuitCfg:    circuitCfg,
		limiterRate:   limiterRate,
		limiterWindow: limiterWindow,
		retryPolicy:   retryPolicy,
		budgetMax:     budgetMax,
		budgetWindow:  budgetWindow,
		m:             make(map[string]*record),
	}
}

func (m *RecoveryManager) recordFor(chain string) *record {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.m[chain]
	if !ok {
		r = &record{
			breaker:     NewCircuitBreaker(m.circuitCfg),
			limiter:     NewRateLimiter(m.limiterRate, m.limiterWindow),
			budget:      NewRetryBudget(m.budgetMax, m.budgetWindow),
			retryPolicy: m.retryPolicy,
		}
		m.m[chain] = r
	}
	return r
}

// Breaker returns the circuit breaker for chain.
func (m *RecoveryManager) Breaker(chain string) *CircuitBreaker {
	return m.recordFor(chain).breaker
}

// Limiter returns the rate limiter for chain.
func (m *RecoveryManager) Limiter(chain string) *RateLimiter {
	return m.recordFor(chain).limiter
}

// Budget returns the retry budget for chain.
func (m *RecoveryManager) Budget(chain string) *RetryBudget {
	return m.recordFor(chain).budget
}

// Action is the recovery step the caller should take for an observed error.
type Action int

const (
	ActionProceed Action = iota // no special handling needed
	ActionRetryAfter            // retry after the returned delay, if budget allows
	ActionCircuitOpen           // do not attempt, breaker is open
	ActionRateLimited           // do not attempt, rate limit exceeded
	ActionGiveUp                // retry budget exhausted
)

// HandleError records the error against chain's breaker and history, then
// decides the recovery action per spec.md §4.1: rate limiting is checked
// first (cheapest check), then the breaker, then the retry budget.
func (m *RecoveryManager) HandleError(chain string, code Code, attempt int) (Action, time.Duration) {
	r := m.recordFor(chain)

	m.mu.Lock()
	r.errorHistory = append(r.errorHistory, code)
	if len(r.errorHistory) > maxErrorHistory {
		r.errorHistory = r.errorHistory[len(r.errorHistory)-maxErrorHistory:]
	}
	r.lastRecovery = time.Now()
	m.mu.Unlock()

	if !r.limiter.Allow() {
		return ActionRateLimited, 0
	}

	r.breaker.RecordFailure()
	if !r.breaker.Allow() {
		return ActionCircuitOpen, 0
	}

	if code == CodeCircuitOpen || code == CodeRateLimited {
		return ActionProceed, 0
	}

	if !r.budget.TryConsume() {
		return ActionGiveUp, 0
	}

	return ActionRetryAfter, r.retryPolicy.BackoffDuration(attempt)
}

// HandleSuccess records a successful call against chain's breaker.
func (m *RecoveryManager) HandleSuccess(chain string) {
	m.recordFor(chain).breaker.RecordSuccess()
}
