package portalkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// auditDispatcher moves session-lifecycle events from the client's hot path
// to the configured sink on a dedicated goroutine. Emit never blocks the
// caller when DropIfFull is set: a full buffer drops the event and the loss
// is accounted per event type, so a portal operator can tell whether it was
// refresh churn or accessor traffic that overflowed the buffer.
type auditDispatcher struct {
	cfg    AuditConfig
	sink   AuditSink
	logger logrus.FieldLogger

	ch   chan AuditEvent
	done chan struct{}
	wg   sync.WaitGroup

	dropped  atomic.Uint64
	dropMu   sync.Mutex
	dropByEv map[string]uint64
	dropWarn sync.Once

	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger logrus.FieldLogger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:      cfg,
		sink:     sink,
		logger:   logger,
		ch:       make(chan AuditEvent, cfg.BufferSize),
		done:     make(chan struct{}),
		dropByEv: make(map[string]uint64),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			// Buffered events survive Close; only unbuffered ones are lost.
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.recordDrop(event.EventType)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *auditDispatcher) recordDrop(eventType string) {
	d.dropped.Add(1)

	d.dropMu.Lock()
	d.dropByEv[eventType]++
	d.dropMu.Unlock()

	if d.logger != nil {
		d.dropWarn.Do(func() {
			d.logger.WithField("event_type", eventType).
				Warn("portalkit: audit buffer full, dropping events")
		})
	}
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped describes the dropped operation and its observable behavior.
//
// Dropped may return an error when input validation, dependency calls, or security checks fail.
// Dropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType describes the droppedbytype operation and its observable behavior.
//
// DroppedByType may return an error when input validation, dependency calls, or security checks fail.
// DroppedByType does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) DroppedByType() map[string]uint64 {
	if d == nil {
		return map[string]uint64{}
	}

	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	out := make(map[string]uint64, len(d.dropByEv))
	for k, v := range d.dropByEv {
		out[k] = v
	}
	return out
}
