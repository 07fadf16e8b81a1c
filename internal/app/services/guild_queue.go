package services

import (
	"context"
	"sync"

	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

const defaultGuildQueueDepth = 256

// GuildQueue serializa o processamento por guild: eventos da mesma guild rodam
// na ordem de chegada, guilds diferentes em paralelo.
type GuildQueue struct {
	mu      sync.Mutex
	workers map[string]chan func(context.Context)
	depth   int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewGuildQueue cria a fila. Os workers vivem até Close; o cancelamento de ctx
// não descarta eventos já enfileirados, só os valores de ctx são herdados.
func NewGuildQueue(ctx context.Context, depth int, m *metrics.Metrics, log logger.Logger) *GuildQueue {
	if depth <= 0 {
		depth = defaultGuildQueueDepth
	}
	if log == nil {
		log = logger.Noop
	}
	qctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &GuildQueue{
		workers: make(map[string]chan func(context.Context)),
		depth:   depth,
		ctx:     qctx,
		cancel:  cancel,
		metrics: m,
		log:     log,
	}
}

// Submit enqueues fn for guildID. It never blocks; a full queue drops fn.
func (q *GuildQueue) Submit(guildID string, fn func(context.Context)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	ch, ok := q.workers[guildID]
	if !ok {
		ch = make(chan func(context.Context), q.depth)
		q.workers[guildID] = ch
		q.wg.Add(1)
		go q.run(guildID, ch)
	}
	select {
	case ch <- fn:
		return true
	default:
		q.metrics.IncQueueDropped()
		q.log.Warnf("fila da guild %s cheia; evento descartado", guildID)
		return false
	}
}

func (q *GuildQueue) run(guildID string, ch chan func(context.Context)) {
	defer q.wg.Done()
	for fn := range ch {
		q.invoke(guildID, fn)
	}
}

func (q *GuildQueue) invoke(guildID string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Errorf("panic processando evento da guild %s: %v", guildID, r)
		}
	}()
	fn(q.ctx)
}

// Close runs what is already queued, then stops the workers.
func (q *GuildQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.workers {
		close(ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
	q.cancel()
}
