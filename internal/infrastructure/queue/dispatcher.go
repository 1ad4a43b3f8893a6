package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/salonbook/webapp/internal/api/metrics"
	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	flushTimeout   = 5 * time.Second
)

// Dispatcher routes session audit events to a fixed set of workers using
// consistent hashing on the session id, guaranteeing per-session ordering.
// It implements ports.SessionAuditor.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	repo    ports.SessionEventRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.SessionEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Record enqueues an event on the worker responsible for its session. Session
// operations must never wait on the audit trail, so a full queue drops.
func (d *Dispatcher) Record(event domain.SessionEvent) {
	idx := d.shardIndex(event.SessionID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("session_id", event.SessionID).
			Str("type", string(event.Type)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			d.flush(context.WithoutCancel(ctx), id, ch)
			return
		case event := <-ch:
			depth.Dec()
			d.store(ctx, id, &event)
		}
	}
}

// flush persists whatever is still buffered once the worker is told to stop.
func (d *Dispatcher) flush(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case event := <-ch:
			depth.Dec()
			d.store(ctx, id, &event)
		default:
			return
		}
	}
}

func (d *Dispatcher) store(ctx context.Context, id int, event *domain.SessionEvent) {
	if err := d.repo.InsertEvent(ctx, event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("session_id", event.SessionID).
			Str("type", string(event.Type)).
			Int("worker_id", id).
			Msg("audit event persistence failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("stored").Inc()
}

// LogAuditor writes session events to the log only. It is used when the
// audit trail is disabled.
type LogAuditor struct {
	log zerolog.Logger
}

func NewLogAuditor(log zerolog.Logger) LogAuditor {
	return LogAuditor{log: log}
}

func (a LogAuditor) Record(event domain.SessionEvent) {
	a.log.Debug().
		Str("session_id", event.SessionID).
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("reason", event.Reason).
		Msg("session event")
}
