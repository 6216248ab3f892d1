package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-udp-reservation/internal/config"
	"github.com/iliyamo/cinema-udp-reservation/internal/model"
	"github.com/iliyamo/cinema-udp-reservation/internal/queue"
)

var (
	ErrQueueFull           = errors.New("write-behind queue full")
	ErrClosed              = errors.New("write-behind queue closed")
	ErrEarlierWritePending = errors.New("earlier write for reservation still pending")
)

// EventPublisher receives reservation events after each committed change.
// *queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Writer is the write-behind queue.  A single goroutine drains it so the
// writes for one reservation reach the store in commit order.  A nil
// store disables durability; events are still published.
type Writer struct {
	store   ReservationStore
	events  EventPublisher
	cfg     config.PersistConfig
	journal *Journal
	logger  *log.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	jobs   chan Op
	done   chan struct{}

	reconcileMu sync.Mutex
}

// NewWriter starts the drain goroutine.  Close stops it.
func NewWriter(store ReservationStore, events EventPublisher, cfg config.PersistConfig, logger *log.Logger) *Writer {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	w := &Writer{
		store:   store,
		events:  events,
		cfg:     cfg,
		journal: NewJournal(),
		logger:  logger,
		now:     time.Now,
		jobs:    make(chan Op, size),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// RecordCreated queues the insert of a confirmed reservation.
func (w *Writer) RecordCreated(r model.Reservation) {
	w.enqueue(Op{Kind: OpInsertReservation, Reservation: r})
}

// RecordCancelled queues the status update of a cancelled reservation.
func (w *Writer) RecordCancelled(r model.Reservation) {
	w.enqueue(Op{Kind: OpUpdateStatus, Reservation: r})
}

// Divergences lists writes that have not reached the store.
func (w *Writer) Divergences() []Divergence { return w.journal.Entries() }

// Journal exposes the divergence journal.
func (w *Writer) Journal() *Journal { return w.journal }

func (w *Writer) enqueue(op Op) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.diverge(op, 0, ErrClosed)
		return
	}
	select {
	case w.jobs <- op:
	default:
		w.diverge(op, 0, ErrQueueFull)
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for op := range w.jobs {
		w.process(op)
	}
}

func (w *Writer) process(op Op) {
	if w.store != nil {
		if w.journal.Pending(op.Reservation.ID) {
			w.diverge(op, 0, ErrEarlierWritePending)
		} else if err := w.writeWithRetry(op); err != nil {
			var pe *PersistenceError
			if errors.As(err, &pe) {
				w.diverge(op, pe.Attempts, pe.Err)
			} else {
				w.diverge(op, 0, err)
			}
		}
	}
	w.publish(eventType(op), op.Reservation, "")
}

// writeWithRetry makes 1+Retries attempts, doubling the pause between them.
func (w *Writer) writeWithRetry(op Op) error {
	attempts := 1 + w.cfg.Retries
	backoff := w.cfg.Backoff
	var err error
	for i := 1; i <= attempts; i++ {
		if err = w.write(context.Background(), op); err == nil {
			if i > 1 {
				w.logger.Infof("persisted %s %s on attempt %d", op.Kind, op.Reservation.ID, i)
			}
			return nil
		}
		w.logger.Warnf("persist %s %s attempt %d/%d failed: %v", op.Kind, op.Reservation.ID, i, attempts, err)
		if i < attempts && backoff > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return &PersistenceError{Op: op, Attempts: attempts, Err: err}
}

func (w *Writer) write(ctx context.Context, op Op) error {
	if w.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.WriteTimeout)
		defer cancel()
	}
	return apply(ctx, w.store, op)
}

func (w *Writer) diverge(op Op, attempts int, err error) {
	d := w.journal.Add(op, attempts, err, w.now())
	w.logger.Errorf("durability divergence #%d: %s %s: %v", d.Seq, op.Kind, op.Reservation.ID, err)
	w.publish(queue.ReservationDivergence, op.Reservation, err.Error())
}

func (w *Writer) publish(t queue.EventType, r model.Reservation, errText string) {
	if w.events == nil {
		return
	}
	ev := queue.NewReservationEvent(t, r, w.now())
	ev.Error = errText
	ctx := context.Background()
	if w.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.WriteTimeout)
		defer cancel()
	}
	if err := w.events.Publish(ctx, ev); err != nil {
		w.logger.Warnf("publish %s for %s failed: %v", t, r.ID, err)
	}
}

func eventType(op Op) queue.EventType {
	if op.Kind == OpUpdateStatus && op.Reservation.Status == model.StatusCancelled {
		return queue.ReservationCancelled
	}
	return queue.ReservationConfirmed
}

// Reconcile replays journaled writes in order, once each.  After a replay
// fails the remaining writes of that reservation are skipped until the
// next run.  It returns how many writes reached the store.
func (w *Writer) Reconcile(ctx context.Context) int {
	w.reconcileMu.Lock()
	defer w.reconcileMu.Unlock()
	if w.store == nil {
		return 0
	}
	blocked := make(map[string]bool)
	replayed := 0
	for _, d := range w.journal.Entries() {
		if ctx.Err() != nil {
			break
		}
		id := d.Op.Reservation.ID
		if blocked[id] {
			continue
		}
		if err := w.write(ctx, d.Op); err != nil {
			w.journal.markFailed(d.Seq, err, w.now())
			blocked[id] = true
			continue
		}
		w.journal.remove(d.Seq)
		replayed++
	}
	if replayed > 0 || w.journal.Len() > 0 {
		w.logger.Infof("reconcile: %d replayed, %d outstanding", replayed, w.journal.Len())
	}
	return replayed
}

// Close stops accepting writes and waits for the queue to drain or for
// ctx to end.  Writes recorded after Close are journaled.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
