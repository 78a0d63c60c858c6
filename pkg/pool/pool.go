// Package pool provides bounded NNTP connection pools and multi-server
// failover groups. A pool owns up to N pre-authenticated connections to
// one endpoint and lends them out through exclusive handles; a server
// group routes acquires across several pools by priority or rotation,
// tracking endpoint health.
package pool

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/spool/internal/logger"
	"github.com/marmos91/spool/pkg/config"
	"github.com/marmos91/spool/pkg/metrics"
	"github.com/marmos91/spool/pkg/nntp"
)

// ErrPoolClosed is returned by Get after Close.
var ErrPoolClosed = errors.New("pool: closed")

// ErrAcquireTimeout is returned when no connection frees up within the
// acquire timeout.
var ErrAcquireTimeout = errors.New("pool: acquire timed out")

// DefaultAcquireTimeout bounds Get on a saturated pool when the caller's
// context carries no deadline.
const DefaultAcquireTimeout = 30 * time.Second

// DialFunc establishes and authenticates one connection. Tests inject
// fakes through it.
type DialFunc func(ctx context.Context, cfg config.ServerConfig) (*nntp.Conn, error)

// defaultDial connects with the nntp client and authenticates when
// credentials are configured.
func defaultDial(ctx context.Context, cfg config.ServerConfig) (*nntp.Conn, error) {
	conn, err := nntp.Dial(ctx, nntp.Config{
		Host:             cfg.Host,
		Port:             cfg.EffectivePort(),
		TLS:              cfg.TLS,
		AllowInsecureTLS: cfg.AllowInsecureTLS,
		Username:         cfg.Username,
		Password:         cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Username != "" {
		if err := conn.Authenticate(ctx, cfg.Username, cfg.Password); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// Options configures a Pool.
type Options struct {
	// Server is the endpoint this pool connects to.
	Server config.ServerConfig

	// Capacity is the maximum connection count. Required, > 0.
	Capacity int

	// Retry is the backoff policy for establishing and replacing
	// connections. Zero value uses config.DefaultRetryConfig.
	Retry config.RetryConfig

	// AcquireTimeout bounds Get on a saturated pool;
	// DefaultAcquireTimeout when zero.
	AcquireTimeout time.Duration

	// Metrics receives pool instrumentation; nil disables it.
	Metrics *metrics.PoolMetrics

	// Dial overrides the connection factory; nil uses the real client.
	Dial DialFunc
}

// waiter is one blocked Get call. The pool hands a connection directly
// to the oldest waiter on release, which keeps wakeups FIFO.
type waiter struct {
	ch chan *nntp.Conn
}

// Pool is a fixed-capacity connection pool for a single endpoint.
type Pool struct {
	cfg      config.ServerConfig
	endpoint string
	capacity int
	retry    config.RetryConfig
	timeout  time.Duration
	dial     DialFunc
	metrics  *metrics.PoolMetrics

	mu      sync.Mutex
	idle    []*nntp.Conn
	inUse   int
	active  int // established connections, idle + in use
	waiters *list.List
	closed  bool
}

// New builds the pool and eagerly warms it up: every slot is connected
// and authenticated, retrying per the policy. Slots that stay
// unreachable reduce the starting population; construction fails only
// when not a single connection could be established.
func New(ctx context.Context, opts Options) (*Pool, error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("pool: capacity must be positive, got %d", opts.Capacity)
	}
	retry := opts.Retry
	if retry == (config.RetryConfig{}) {
		retry = config.DefaultRetryConfig()
	}
	timeout := opts.AcquireTimeout
	if timeout == 0 {
		timeout = DefaultAcquireTimeout
	}
	dial := opts.Dial
	if dial == nil {
		dial = defaultDial
	}

	p := &Pool{
		cfg:      opts.Server,
		endpoint: opts.Server.Addr(),
		capacity: opts.Capacity,
		retry:    retry,
		timeout:  timeout,
		dial:     dial,
		metrics:  opts.Metrics,
		waiters:  list.New(),
	}

	for i := 0; i < p.capacity; i++ {
		conn, err := p.connect(ctx)
		if err != nil {
			logger.Warn("pool warm-up slot failed", "endpoint", p.endpoint, "slot", i, "error", err)
			continue
		}
		p.idle = append(p.idle, conn)
		p.active++
	}
	if p.active == 0 {
		return nil, fmt.Errorf("pool: no connection to %s could be established", p.endpoint)
	}
	p.publishPopulation()
	logger.Info("pool ready", "endpoint", p.endpoint, "connections", p.active, "capacity", p.capacity)
	return p, nil
}

// Endpoint returns the host:port this pool serves.
func (p *Pool) Endpoint() string { return p.endpoint }

// connect dials with retries per the policy.
func (p *Pool) connect(ctx context.Context) (*nntp.Conn, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, backoffDelay(p.retry, attempt-1)); err != nil {
				return nil, err
			}
		}
		conn, err := p.dial(ctx, p.cfg)
		if err == nil {
			p.metrics.RecordConnect(p.endpoint)
			return conn, nil
		}
		p.metrics.RecordConnectFailure(p.endpoint)
		lastErr = err
	}
	return nil, lastErr
}

// Get returns an exclusive handle to a connection. Idle connections are
// reused; a pool below capacity dials a replacement; a saturated pool
// parks the caller FIFO until a release, the acquire timeout, or
// context cancellation.
func (p *Pool) Get(ctx context.Context) (*Handle, error) {
	start := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	// Reuse an idle connection, discarding any that died while parked.
	for len(p.idle) > 0 {
		conn := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if conn.State() == nntp.StateClosed {
			p.active--
			p.retire(conn, "closed")
			continue
		}
		p.inUse++
		p.publishPopulationLocked()
		p.mu.Unlock()
		p.metrics.RecordAcquireWait(p.endpoint, time.Since(start).Seconds())
		return &Handle{pool: p, Conn: conn, Endpoint: p.endpoint}, nil
	}

	// Below capacity: lazily replace a discarded connection.
	if p.active < p.capacity {
		p.active++
		p.inUse++
		p.mu.Unlock()
		conn, err := p.connect(ctx)
		if err != nil {
			p.mu.Lock()
			p.active--
			p.inUse--
			p.publishPopulationLocked()
			p.mu.Unlock()
			return nil, err
		}
		p.metrics.RecordAcquireWait(p.endpoint, time.Since(start).Seconds())
		p.publishPopulation()
		return &Handle{pool: p, Conn: conn, Endpoint: p.endpoint}, nil
	}

	// Saturated: wait FIFO for a release.
	w := &waiter{ch: make(chan *nntp.Conn, 1)}
	elem := p.waiters.PushBack(w)
	p.mu.Unlock()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case conn := <-w.ch:
		if conn == nil {
			// Channel closed by Close.
			return nil, ErrPoolClosed
		}
		p.metrics.RecordAcquireWait(p.endpoint, time.Since(start).Seconds())
		return &Handle{pool: p, Conn: conn, Endpoint: p.endpoint}, nil
	case <-timer.C:
		p.abandonWaiter(elem, w)
		return nil, ErrAcquireTimeout
	case <-ctx.Done():
		p.abandonWaiter(elem, w)
		return nil, ctx.Err()
	}
}

// abandonWaiter removes a timed-out waiter, re-queuing a connection
// that raced into its channel.
func (p *Pool) abandonWaiter(elem *list.Element, w *waiter) {
	p.mu.Lock()
	p.waiters.Remove(elem)
	select {
	case conn := <-w.ch:
		if conn != nil {
			p.inUse--
			p.releaseLocked(conn)
		}
	default:
	}
	p.mu.Unlock()
}

// release returns a connection to the pool. Closed connections are
// discarded and their slot freed for lazy replacement.
func (p *Pool) release(conn *nntp.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inUse--
	p.releaseLocked(conn)
}

func (p *Pool) releaseLocked(conn *nntp.Conn) {
	if p.closed {
		p.active--
		bw := conn.Bandwidth()
		p.metrics.RecordBandwidth(p.endpoint, bw.WireRead, bw.WireWritten)
		conn.Close()
		return
	}
	if conn.State() == nntp.StateClosed {
		p.active--
		p.retire(conn, "closed")
		p.publishPopulationLocked()
		return
	}
	// Hand off directly to the oldest waiter.
	if elem := p.waiters.Front(); elem != nil {
		p.waiters.Remove(elem)
		p.inUse++
		elem.Value.(*waiter).ch <- conn
		p.publishPopulationLocked()
		return
	}
	p.idle = append(p.idle, conn)
	p.publishPopulationLocked()
}

// Stats reports the instantaneous population.
func (p *Pool) Stats() (total, idle, inUse int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active, len(p.idle), p.inUse
}

// Close quits all idle connections and fails pending and future Gets.
// Connections currently lent out are closed on release.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.active -= len(idle)
	for elem := p.waiters.Front(); elem != nil; elem = elem.Next() {
		close(elem.Value.(*waiter).ch)
	}
	p.waiters.Init()
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, conn := range idle {
		bw := conn.Bandwidth()
		p.metrics.RecordBandwidth(p.endpoint, bw.WireRead, bw.WireWritten)
		_ = conn.Quit(ctx)
	}
	p.publishPopulation()
	logger.Debug("pool closed", "endpoint", p.endpoint)
}

// retire counts a discarded connection and folds its bandwidth totals
// into the pool metrics.
func (p *Pool) retire(conn *nntp.Conn, reason string) {
	bw := conn.Bandwidth()
	p.metrics.RecordBandwidth(p.endpoint, bw.WireRead, bw.WireWritten)
	p.metrics.RecordDiscard(p.endpoint, reason)
}

func (p *Pool) publishPopulation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishPopulationLocked()
}

func (p *Pool) publishPopulationLocked() {
	p.metrics.SetPopulation(p.endpoint, len(p.idle), p.inUse)
}

// Handle is exclusive ownership of one connection until Release.
type Handle struct {
	// Conn is the owned connection. Using it after Release is a bug.
	Conn *nntp.Conn

	// Endpoint identifies which server served this handle, for
	// attribution by server-group callers.
	Endpoint string

	pool     *Pool
	released bool
}

// Release returns the connection to its pool. Safe to call once;
// further calls are no-ops.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.pool.release(h.Conn)
}
