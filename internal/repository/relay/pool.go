package relay

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/zapeame/nostr-market/internal/cfg"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

// Conn — соединение с одним реле. Выделено в интерфейс, чтобы пул
// тестировался без сети.
type Conn interface {
	Publish(ctx context.Context, ev nostr.Event) error
	QuerySync(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error)
	IsConnected() bool
	Close() error
}

// DialFunc устанавливает соединение с реле по URL
type DialFunc func(ctx context.Context, url string) (Conn, error)

// NostrDial — боевой DialFunc поверх go-nostr
func NostrDial(ctx context.Context, url string) (Conn, error) {
	r, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, err
	}

	return &nostrConn{relay: r}, nil
}

type nostrConn struct {
	relay *nostr.Relay
}

func (c *nostrConn) Publish(ctx context.Context, ev nostr.Event) error {
	return c.relay.Publish(ctx, ev)
}

func (c *nostrConn) QuerySync(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error) {
	return c.relay.QuerySync(ctx, filter)
}

func (c *nostrConn) IsConnected() bool {
	return c.relay.IsConnected()
}

func (c *nostrConn) Close() error {
	return c.relay.Close()
}

// Pool держит пул реле с политикой минимального кворума.
// Ни одно реле не авторитетно: подключение, публикация и запросы —
// best-effort по активному подмножеству.
type Pool struct {
	candidates     []string // исходный список кандидатов, не мутируется
	quorum         int
	connectTimeout time.Duration
	opTimeout      time.Duration
	dial           DialFunc
	logger         logger.Logger

	mu     sync.Mutex
	active []string
	conns  map[string]Conn
}

func NewPool(cfg *cfg.RelayCfg, dial DialFunc, logger logger.Logger) *Pool {
	return &Pool{
		candidates:     cfg.URLs,
		quorum:         cfg.Quorum,
		connectTimeout: cfg.ConnectTimeout,
		opTimeout:      cfg.OpTimeout,
		dial:           dial,
		logger:         logger,
		conns:          make(map[string]Conn),
	}
}

// Connect обходит полный исходный список кандидатов по порядку и
// останавливается, как только набран кворум. Активный набор заменяется
// ровно подмножеством успешных подключений. Отказ отдельного реле —
// штатный шум, фатален только недобор кворума.
func (p *Pool) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	succeeded := make([]string, 0, len(p.candidates))
	for _, url := range p.candidates {
		if len(succeeded) >= p.quorum {
			break
		}

		if conn, ok := p.conns[url]; ok && conn.IsConnected() {
			succeeded = append(succeeded, url)
			continue
		}

		connectCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
		conn, err := p.dial(connectCtx, url)
		cancel()
		if err != nil {
			p.logger.Warnf("relay connect failed: %s: %v", url, err)
			delete(p.conns, url)
			continue
		}

		p.conns[url] = conn
		succeeded = append(succeeded, url)
	}

	p.active = succeeded
	if len(succeeded) < p.quorum {
		return e.Wrap("Pool.Connect", e.ErrQuorumNotMet)
	}

	return nil
}

// Active возвращает снимок текущего активного набора реле
func (p *Pool) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.active...)
}

// Publish рассылает подписанное событие на все активные реле параллельно.
// Успех — подтверждение хотя бы от одного реле.
func (p *Pool) Publish(ctx context.Context, ev nostr.Event) error {
	const op = "Pool.Publish"

	conns := p.activeConns()
	if len(conns) == 0 {
		return e.Wrap(op, e.ErrNoActiveRelays)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		acked int
	)

	for url, conn := range conns {
		wg.Add(1)
		go func(url string, conn Conn) {
			defer wg.Done()

			opCtx, cancel := context.WithTimeout(ctx, p.opTimeout)
			defer cancel()

			if err := conn.Publish(opCtx, ev); err != nil {
				p.logger.Warnf("relay publish failed: %s: %v", url, err)
				return
			}

			mu.Lock()
			acked++
			mu.Unlock()
		}(url, conn)
	}

	wg.Wait()

	if acked == 0 {
		return e.Wrap(op, e.ErrBroadcastFailed)
	}

	return nil
}

// Query опрашивает все активные реле параллельно и сливает результаты,
// убирая дубликаты по идентификатору события (одно событие может прийти
// с нескольких реле). Таймаут отдельного реле равнозначен пустому ответу.
func (p *Pool) Query(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error) {
	const op = "Pool.Query"

	conns := p.activeConns()
	if len(conns) == 0 {
		return nil, e.Wrap(op, e.ErrNoActiveRelays)
	}

	results := make(chan []*nostr.Event, len(conns))

	var wg sync.WaitGroup
	for url, conn := range conns {
		wg.Add(1)
		go func(url string, conn Conn) {
			defer wg.Done()

			opCtx, cancel := context.WithTimeout(ctx, p.opTimeout)
			defer cancel()

			evs, err := conn.QuerySync(opCtx, filter)
			if err != nil {
				p.logger.Warnf("relay query failed: %s: %v", url, err)
				return
			}

			results <- evs
		}(url, conn)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]struct{})
	var merged []*nostr.Event
	for evs := range results {
		for _, ev := range evs {
			if ev == nil {
				continue
			}
			if _, ok := seen[ev.ID]; ok {
				continue
			}
			seen[ev.ID] = struct{}{}
			merged = append(merged, ev)
		}
	}

	return merged, nil
}

// Close закрывает все открытые соединения пула
func (p *Pool) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for url, conn := range p.conns {
		if err := conn.Close(); err != nil {
			p.logger.Warnf("relay close failed: %s: %v", url, err)
		}
		delete(p.conns, url)
	}
	p.active = nil

	return nil
}

// activeConns возвращает снимок соединений активного набора
func (p *Pool) activeConns() map[string]Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns := make(map[string]Conn, len(p.active))
	for _, url := range p.active {
		if conn, ok := p.conns[url]; ok {
			conns[url] = conn
		}
	}

	return conns
}
