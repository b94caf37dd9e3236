package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapeame/nostr-market/internal/cfg"
	"github.com/zapeame/nostr-market/pkg/e"
)

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)        {}
func (noopLogger) Infof(string, ...any)         {}
func (noopLogger) Warnf(string, ...any)         {}
func (noopLogger) Errorf(error, string, ...any) {}

// stubConn — управляемое соединение для тестов пула
type stubConn struct {
	mu         sync.Mutex
	connected  bool
	publishErr error
	queryEvs   []*nostr.Event
	queryErr   error
	published  []nostr.Event
}

func (c *stubConn) Publish(_ context.Context, ev nostr.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, ev)
	return nil
}

func (c *stubConn) QuerySync(_ context.Context, _ nostr.Filter) ([]*nostr.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryEvs, c.queryErr
}

func (c *stubConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// stubDialer раздает соединения по URL и считает попытки
type stubDialer struct {
	mu    sync.Mutex
	conns map[string]*stubConn
	fail  map[string]bool
	dials []string
}

func newStubDialer() *stubDialer {
	return &stubDialer{
		conns: make(map[string]*stubConn),
		fail:  make(map[string]bool),
	}
}

func (d *stubDialer) dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials = append(d.dials, url)
	if d.fail[url] {
		return nil, errors.New("connection refused")
	}

	conn := &stubConn{connected: true}
	d.conns[url] = conn
	return conn, nil
}

func newTestPool(dialer *stubDialer, urls []string, quorum int) *Pool {
	return NewPool(&cfg.RelayCfg{
		URLs:           urls,
		Quorum:         quorum,
		ConnectTimeout: time.Second,
		OpTimeout:      time.Second,
	}, dialer.dial, noopLogger{})
}

func TestConnectStopsAtQuorum(t *testing.T) {
	dialer := newStubDialer()
	dialer.fail["wss://one"] = true

	pool := newTestPool(dialer, []string{"wss://one", "wss://two", "wss://three"}, 1)

	err := pool.Connect(context.Background())
	require.NoError(t, err)

	// Активный набор — ровно успешное подмножество; до третьего кандидата
	// обход не дошел, кворум уже набран
	assert.Equal(t, []string{"wss://two"}, pool.Active())
	assert.Equal(t, []string{"wss://one", "wss://two"}, dialer.dials)
}

func TestConnectQuorumNotMet(t *testing.T) {
	dialer := newStubDialer()
	dialer.fail["wss://one"] = true
	dialer.fail["wss://three"] = true

	pool := newTestPool(dialer, []string{"wss://one", "wss://two", "wss://three"}, 2)

	err := pool.Connect(context.Background())
	require.ErrorIs(t, err, e.ErrQuorumNotMet)

	// Частичный успех сохраняется даже при недоборе кворума
	assert.Equal(t, []string{"wss://two"}, pool.Active())
}

func TestConnectRetriesFullCandidateList(t *testing.T) {
	dialer := newStubDialer()
	dialer.fail["wss://one"] = true

	pool := newTestPool(dialer, []string{"wss://one", "wss://two"}, 1)

	require.NoError(t, pool.Connect(context.Background()))
	assert.Equal(t, []string{"wss://two"}, pool.Active())

	// Первый кандидат ожил: повторное подключение обходит список сначала
	dialer.mu.Lock()
	dialer.fail["wss://one"] = false
	dialer.mu.Unlock()

	require.NoError(t, pool.Connect(context.Background()))
	assert.Equal(t, []string{"wss://one"}, pool.Active())
}

func TestConnectReusesHealthyConnection(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one"}, 1)

	require.NoError(t, pool.Connect(context.Background()))
	require.NoError(t, pool.Connect(context.Background()))

	// Живое соединение не передергивается
	assert.Equal(t, []string{"wss://one"}, dialer.dials)
}

func TestPublishRequiresSingleAck(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one", "wss://two"}, 2)
	require.NoError(t, pool.Connect(context.Background()))

	dialer.conns["wss://one"].publishErr = errors.New("write: broken pipe")

	err := pool.Publish(context.Background(), nostr.Event{ID: "ev1"})
	require.NoError(t, err)

	assert.Len(t, dialer.conns["wss://two"].published, 1)
}

func TestPublishFailsWithoutAcks(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one", "wss://two"}, 2)
	require.NoError(t, pool.Connect(context.Background()))

	dialer.conns["wss://one"].publishErr = errors.New("rejected")
	dialer.conns["wss://two"].publishErr = errors.New("rejected")

	err := pool.Publish(context.Background(), nostr.Event{ID: "ev1"})
	require.ErrorIs(t, err, e.ErrBroadcastFailed)
}

func TestPublishWithoutActiveRelays(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one"}, 1)

	err := pool.Publish(context.Background(), nostr.Event{ID: "ev1"})
	require.ErrorIs(t, err, e.ErrNoActiveRelays)
}

func TestQueryMergesAndDeduplicates(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one", "wss://two"}, 2)
	require.NoError(t, pool.Connect(context.Background()))

	dialer.conns["wss://one"].queryEvs = []*nostr.Event{{ID: "a"}, {ID: "b"}}
	dialer.conns["wss://two"].queryEvs = []*nostr.Event{{ID: "b"}, {ID: "c"}, nil}

	evs, err := pool.Query(context.Background(), nostr.Filter{})
	require.NoError(t, err)

	ids := make(map[string]int)
	for _, ev := range evs {
		ids[ev.ID]++
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, ids)
}

func TestQuerySurvivesPartialFailure(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one", "wss://two"}, 2)
	require.NoError(t, pool.Connect(context.Background()))

	dialer.conns["wss://one"].queryErr = errors.New("timeout")
	dialer.conns["wss://two"].queryEvs = []*nostr.Event{{ID: "a"}}

	evs, err := pool.Query(context.Background(), nostr.Filter{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "a", evs[0].ID)
}

func TestCloseDropsConnections(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one"}, 1)
	require.NoError(t, pool.Connect(context.Background()))

	require.NoError(t, pool.Close(context.Background()))

	assert.Empty(t, pool.Active())
	assert.False(t, dialer.conns["wss://one"].IsConnected())
}
