package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes todo changes to a fixed set of workers using consistent
// hashing on the owner id, so each owner's changes reach the feed in the
// order they were written.
type Dispatcher struct {
	workers []chan domain.TodoChange
	sink    ports.ChangePublisher
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers that
// forward to sink. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.ChangePublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TodoChange, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TodoChange, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish implements ports.ChangePublisher by enqueueing the change on its
// owner's worker. It blocks only while that worker's buffer is full.
func (d *Dispatcher) Publish(ctx context.Context, change domain.TodoChange) error {
	if change.OwnerID == "" {
		return domain.ErrMissingOwner
	}
	idx := d.shardIndex(change.OwnerID)
	select {
	case d.workers[idx] <- change:
		metrics.PublishQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an owner id deterministically to a worker index.
func (d *Dispatcher) shardIndex(ownerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TodoChange) {
	depth := metrics.PublishQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-ch:
			depth.Set(float64(len(ch)))
			if err := d.sink.Publish(ctx, change); err != nil {
				metrics.ChangesPublishedTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("owner_id", change.OwnerID).
					Str("change_type", string(change.Type)).
					Int("worker_id", id).
					Msg("change publish failed")
				continue
			}
			metrics.ChangesPublishedTotal.WithLabelValues("ok").Inc()
		}
	}
}
