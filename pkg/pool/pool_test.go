package pool

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/spool/pkg/config"
	"github.com/marmos91/spool/pkg/nntp"
)

// fakeConn is an in-memory net.Conn serving a fixed server script.
type fakeConn struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newFakeConn(script string) *fakeConn {
	return &fakeConn{in: bytes.NewReader([]byte(script))}
}

func (c *fakeConn) Read(p []byte) (int, error)         { return c.in.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error)        { return c.out.Write(p) }
func (c *fakeConn) Close() error                       { return nil }
func (c *fakeConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

// fakeDial returns a DialFunc producing healthy fake connections and
// counting the dials per endpoint.
func fakeDial(t *testing.T, dials *int32, mu *sync.Mutex) DialFunc {
	t.Helper()
	return func(ctx context.Context, cfg config.ServerConfig) (*nntp.Conn, error) {
		mu.Lock()
		*dials++
		mu.Unlock()
		// Long script so connections survive a QUIT on pool close.
		return nntp.NewConn(ctx, newFakeConn("200 fake ready\r\n205 bye\r\n"), nntp.Config{Host: cfg.Host})
	}
}

func newTestPool(t *testing.T, capacity int, dial DialFunc) *Pool {
	t.Helper()
	p, err := New(context.Background(), Options{
		Server:   config.ServerConfig{Host: "fake"},
		Capacity: capacity,
		Retry:    config.RetryConfig{BackoffMultiplier: 1},
		Dial:     dial,
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestPoolWarmUp(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 3, fakeDial(t, &dials, &mu))

	total, idle, inUse := p.Stats()
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, idle)
	assert.Equal(t, 0, inUse)
	assert.Equal(t, int32(3), dials)
}

func TestPoolWarmUpPartialFailure(t *testing.T) {
	var calls int
	dial := func(ctx context.Context, cfg config.ServerConfig) (*nntp.Conn, error) {
		calls++
		if calls%2 == 0 {
			return nil, errors.New("connection refused")
		}
		return nntp.NewConn(ctx, newFakeConn("200 ready\r\n"), nntp.Config{})
	}
	p, err := New(context.Background(), Options{
		Server:   config.ServerConfig{Host: "flaky"},
		Capacity: 2,
		Retry:    config.RetryConfig{MaxRetries: 0, BackoffMultiplier: 1},
		Dial:     dial,
	})
	require.NoError(t, err)
	defer p.Close()

	total, _, _ := p.Stats()
	assert.Equal(t, 1, total)
}

func TestPoolWarmUpTotalFailureFails(t *testing.T) {
	dial := func(ctx context.Context, cfg config.ServerConfig) (*nntp.Conn, error) {
		return nil, errors.New("connection refused")
	}
	_, err := New(context.Background(), Options{
		Server:   config.ServerConfig{Host: "down"},
		Capacity: 2,
		Retry:    config.RetryConfig{MaxRetries: 1, BackoffMultiplier: 1},
		Dial:     dial,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no connection")
}

func TestPoolGetRelease(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 2, fakeDial(t, &dials, &mu))

	h1, err := p.Get(context.Background())
	require.NoError(t, err)
	h2, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fake:119", h1.Endpoint)

	_, idle, inUse := p.Stats()
	assert.Equal(t, 0, idle)
	assert.Equal(t, 2, inUse)

	h1.Release()
	h1.Release() // second release is a no-op

	_, idle, inUse = p.Stats()
	assert.Equal(t, 1, idle)
	assert.Equal(t, 1, inUse)
	h2.Release()

	// Reuse, no extra dials beyond warm-up.
	h3, err := p.Get(context.Background())
	require.NoError(t, err)
	h3.Release()
	assert.Equal(t, int32(2), dials)
}

func TestPoolDiscardsClosedAndLazilyReplaces(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 1, fakeDial(t, &dials, &mu))

	h, err := p.Get(context.Background())
	require.NoError(t, err)
	h.Conn.Close()
	h.Release()

	total, idle, _ := p.Stats()
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, idle)

	// Next acquire dials a replacement.
	h2, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, nntp.StateClosed, h2.Conn.State())
	h2.Release()
	assert.Equal(t, int32(2), dials)
}

func TestPoolSaturatedWaitsFIFO(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 1, fakeDial(t, &dials, &mu))

	h, err := p.Get(context.Background())
	require.NoError(t, err)

	got := make(chan *Handle, 1)
	go func() {
		h2, gerr := p.Get(context.Background())
		if gerr == nil {
			got <- h2
		}
	}()

	// The waiter must be parked, not failed.
	select {
	case <-got:
		t.Fatal("waiter acquired while pool was saturated")
	case <-time.After(50 * time.Millisecond):
	}

	h.Release()
	select {
	case h2 := <-got:
		h2.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by release")
	}
}

func TestPoolGetTimeout(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	dial := fakeDial(t, &dials, &mu)
	p, err := New(context.Background(), Options{
		Server:         config.ServerConfig{Host: "fake"},
		Capacity:       1,
		Retry:          config.RetryConfig{BackoffMultiplier: 1},
		AcquireTimeout: 30 * time.Millisecond,
		Dial:           dial,
	})
	require.NoError(t, err)
	defer p.Close()

	h, err := p.Get(context.Background())
	require.NoError(t, err)
	defer h.Release()

	_, err = p.Get(context.Background())
	assert.ErrorIs(t, err, ErrAcquireTimeout)
}

func TestPoolGetContextCancel(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 1, fakeDial(t, &dials, &mu))

	h, err := p.Get(context.Background())
	require.NoError(t, err)
	defer h.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = p.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// Pool population invariant: k concurrent holders never exceed
// capacity, and in-use plus idle stays within it.
func TestPoolConcurrentAcquirers(t *testing.T) {
	var dials int32
	var dmu sync.Mutex
	const capacity = 4
	p := newTestPool(t, capacity, fakeDial(t, &dials, &dmu))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := p.Get(context.Background())
			if err != nil {
				return
			}
			_, idle, inUse := p.Stats()
			assert.LessOrEqual(t, inUse, capacity)
			assert.LessOrEqual(t, idle+inUse, capacity)
			time.Sleep(time.Millisecond)
			h.Release()
		}()
	}
	wg.Wait()

	total, idle, inUse := p.Stats()
	assert.Equal(t, 0, inUse)
	assert.Equal(t, total, idle)
}

func TestPoolClose(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 1, fakeDial(t, &dials, &mu))
	p.Close()
	_, err := p.Get(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestBackoffDelay(t *testing.T) {
	cfg := config.RetryConfig{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2,
	}
	assert.Equal(t, 100*time.Millisecond, backoffDelay(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(cfg, 1))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(cfg, 2))
	// Capped.
	assert.Equal(t, time.Second, backoffDelay(cfg, 10))

	// Jitter stays within [0.5x, 1.5x].
	cfg.Jitter = true
	for i := 0; i < 50; i++ {
		d := backoffDelay(cfg, 1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestHandleEndpointAttribution(t *testing.T) {
	var dials int32
	var mu sync.Mutex
	p := newTestPool(t, 1, fakeDial(t, &dials, &mu))
	h, err := p.Get(context.Background())
	require.NoError(t, err)
	defer h.Release()
	assert.True(t, strings.HasPrefix(h.Endpoint, "fake:"))
}
