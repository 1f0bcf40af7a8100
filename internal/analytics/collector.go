package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/lou463/Underscore-Resume-BETA01/pkg/kafka"
	"github.com/prometheus/client_golang/prometheus"
)

// Publisher is the part of kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events in a bounded channel and publishes them in
// batches, flushing when a batch fills or the flush interval elapses. Track
// never blocks; events that do not fit are dropped and counted.
type Collector struct {
	publisher     Publisher
	eventCh       chan ScoreEvent
	batchSize     int
	flushInterval time.Duration
	dropped       prometheus.Counter
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector creates a Collector. dropped may be nil.
func NewCollector(publisher Publisher, bufferSize int, dropped prometheus.Counter) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan ScoreEvent, bufferSize),
		batchSize:     100,
		flushInterval: 2 * time.Second,
		dropped:       dropped,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. Cancelling ctx flushes what is buffered
// and stops the loop.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.flush(context.Background(), batch)
					return
				}
				batch = append(batch, kafka.Event{Key: string(event.Type), Value: event})
				if len(batch) >= c.batchSize {
					c.flush(ctx, batch)
					batch = batch[:0]
				}
			case <-ticker.C:
				c.flush(ctx, batch)
				batch = batch[:0]
			case <-ctx.Done():
				c.drainRemaining(batch)
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh), "batch_size", c.batchSize)
}

func (c *Collector) Track(event ScoreEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case c.eventCh <- event:
	default:
		if c.dropped != nil {
			c.dropped.Inc()
		}
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the buffer to be published.
// It must not be called concurrently with Track.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics events", "events", len(batch), "error", err)
		return
	}
	c.logger.Debug("analytics events published", "events", len(batch))
}

func (c *Collector) drainRemaining(batch []kafka.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				c.flush(ctx, batch)
				return
			}
			batch = append(batch, kafka.Event{Key: string(event.Type), Value: event})
		default:
			c.flush(ctx, batch)
			return
		}
	}
}
