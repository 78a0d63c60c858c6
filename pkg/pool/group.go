package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/spool/internal/logger"
	"github.com/marmos91/spool/pkg/config"
	"github.com/marmos91/spool/pkg/metrics"
)

// Strategy selects how a server group routes acquires across its
// endpoints.
type Strategy int

const (
	// PrimaryWithFallback always tries endpoints in strict priority
	// order, falling through on connection-level failure.
	PrimaryWithFallback Strategy = iota
	// RoundRobin rotates across all endpoints regardless of health.
	RoundRobin
	// RoundRobinHealthy rotates across healthy endpoints, falling back
	// to the full set when every endpoint is unhealthy.
	RoundRobinHealthy
)

// ParseStrategy maps the config tag to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "primary":
		return PrimaryWithFallback, nil
	case "round-robin":
		return RoundRobin, nil
	case "round-robin-healthy":
		return RoundRobinHealthy, nil
	default:
		return 0, fmt.Errorf("pool: unknown strategy %q", s)
	}
}

func (s Strategy) String() string {
	switch s {
	case RoundRobin:
		return "round-robin"
	case RoundRobinHealthy:
		return "round-robin-healthy"
	default:
		return "primary"
	}
}

// Endpoint health defaults. An endpoint trips unhealthy when its error
// counter exceeds the threshold and becomes eligible again after the
// cool-down.
const (
	defaultHealthThreshold = 3
	defaultCoolDown        = 30 * time.Second
)

// endpoint is one pool plus its routing metadata.
type endpoint struct {
	pool     *Pool
	priority int

	mu          sync.Mutex
	errCount    int
	unhealthyAt time.Time
}

// recordResult updates the health counter: success decrements toward
// zero, failure increments and may trip the unhealthy mark. A tripped
// endpoint stays marked until its counter drains to zero or the
// cool-down expires; a single success does not un-trip it.
func (e *endpoint) recordResult(ok bool, threshold int) (unhealthy bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ok {
		if e.errCount > 0 {
			e.errCount--
		}
		if e.errCount == 0 {
			e.unhealthyAt = time.Time{}
		}
		return !e.unhealthyAt.IsZero()
	}
	e.errCount++
	if e.errCount > threshold && e.unhealthyAt.IsZero() {
		e.unhealthyAt = time.Now()
	}
	return !e.unhealthyAt.IsZero()
}

// healthy reports eligibility: never tripped, or cooled down.
func (e *endpoint) healthy(coolDown time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unhealthyAt.IsZero() {
		return true
	}
	if time.Since(e.unhealthyAt) >= coolDown {
		// Cool-down elapsed: give the endpoint another chance.
		e.unhealthyAt = time.Time{}
		e.errCount = 0
		return true
	}
	return false
}

// GroupOptions configures a ServerGroup beyond its GroupConfig.
type GroupOptions struct {
	// Metrics receives routing instrumentation; nil disables it.
	Metrics *metrics.GroupMetrics

	// PoolMetrics is shared across the per-endpoint pools.
	PoolMetrics *metrics.PoolMetrics

	// HealthThreshold overrides the error count that trips an endpoint
	// unhealthy; defaultHealthThreshold when zero.
	HealthThreshold int

	// CoolDown overrides how long a tripped endpoint stays out of
	// rotation; defaultCoolDown when zero.
	CoolDown time.Duration

	// Dial overrides the connection factory for every pool.
	Dial DialFunc
}

// ServerGroup routes acquires across one pool per configured endpoint.
type ServerGroup struct {
	endpoints []*endpoint
	strategy  Strategy
	threshold int
	coolDown  time.Duration
	metrics   *metrics.GroupMetrics

	mu   sync.Mutex
	next int // round-robin cursor
}

// NewGroup validates the config, builds one pool per endpoint, and
// returns the group. Endpoint construction failures are tolerated as
// long as at least one pool comes up.
func NewGroup(ctx context.Context, cfg config.GroupConfig, opts GroupOptions) (*ServerGroup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	g := &ServerGroup{
		strategy:  strategy,
		threshold: opts.HealthThreshold,
		coolDown:  opts.CoolDown,
		metrics:   opts.Metrics,
	}
	if g.threshold == 0 {
		g.threshold = defaultHealthThreshold
	}
	if g.coolDown == 0 {
		g.coolDown = defaultCoolDown
	}

	for i, server := range cfg.Servers {
		p, perr := New(ctx, Options{
			Server:   server,
			Capacity: cfg.PoolSize,
			Retry:    cfg.Retry,
			Metrics:  opts.PoolMetrics,
			Dial:     opts.Dial,
		})
		if perr != nil {
			logger.Warn("server group endpoint unavailable", "endpoint", server.Addr(), "error", perr)
			continue
		}
		priority := 0
		if len(cfg.Priorities) > 0 {
			priority = cfg.Priorities[i]
		}
		g.endpoints = append(g.endpoints, &endpoint{pool: p, priority: priority})
	}
	if len(g.endpoints) == 0 {
		return nil, errors.New("pool: no server group endpoint could be established")
	}

	// Lower priority value wins; stable sort keeps config order among
	// equals.
	sort.SliceStable(g.endpoints, func(i, j int) bool {
		return g.endpoints[i].priority < g.endpoints[j].priority
	})
	logger.Info("server group ready", "endpoints", len(g.endpoints), "strategy", strategy.String())
	return g, nil
}

// Get acquires a connection from an endpoint chosen by the strategy.
// The returned handle's Endpoint field attributes the serving server.
// Every attempt updates that endpoint's health counters.
func (g *ServerGroup) Get(ctx context.Context) (*Handle, error) {
	order := g.order()
	var lastErr error
	for _, e := range order {
		h, err := e.pool.Get(ctx)
		unhealthy := e.recordResult(err == nil, g.threshold)
		g.metrics.RecordAcquire(e.pool.Endpoint(), err == nil)
		g.metrics.SetUnhealthy(e.pool.Endpoint(), unhealthy)
		if err == nil {
			return h, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = errors.New("pool: no endpoint available")
	}
	return nil, lastErr
}

// order returns the endpoints in the sequence the strategy wants them
// tried.
func (g *ServerGroup) order() []*endpoint {
	switch g.strategy {
	case RoundRobin:
		return g.rotate(g.endpoints)
	case RoundRobinHealthy:
		healthy := make([]*endpoint, 0, len(g.endpoints))
		for _, e := range g.endpoints {
			if e.healthy(g.coolDown) {
				healthy = append(healthy, e)
			}
		}
		if len(healthy) == 0 {
			// Everything tripped: any endpoint is better than none.
			healthy = g.endpoints
		}
		return g.rotate(healthy)
	default:
		return g.endpoints
	}
}

// rotate returns set starting at the advancing round-robin cursor.
func (g *ServerGroup) rotate(set []*endpoint) []*endpoint {
	g.mu.Lock()
	start := g.next % len(set)
	g.next++
	g.mu.Unlock()

	out := make([]*endpoint, 0, len(set))
	out = append(out, set[start:]...)
	out = append(out, set[:start]...)
	return out
}

// Endpoints lists the serving addresses in routing order.
func (g *ServerGroup) Endpoints() []string {
	out := make([]string, len(g.endpoints))
	for i, e := range g.endpoints {
		out[i] = e.pool.Endpoint()
	}
	return out
}

// Close closes every endpoint pool.
func (g *ServerGroup) Close() {
	for _, e := range g.endpoints {
		e.pool.Close()
	}
}
