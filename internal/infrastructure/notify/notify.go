package notify

import (
	"context"
	"encoding/json"
	"time"

	"peerfund-service/internal/infrastructure/logger"
	"peerfund-service/internal/infrastructure/metrics"
	"peerfund-service/pkg/id"

	"github.com/redis/go-redis/v9"
)

const publishTimeout = 5 * time.Second

// Event is the payload published when a loan becomes fully funded.
type Event struct {
	EventID    string    `json:"event_id"`
	LoanID     uint64    `json:"loan_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher pushes events onto a Redis pub/sub channel; a downstream
// worker turns them into investor emails.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Dispatcher decouples the state-changing operation from delivery: events are
// queued on a buffered channel and published by a single worker goroutine.
// Enqueueing never blocks; a full queue drops the event (and logs it).
type Dispatcher struct {
	pub   Publisher
	log   *logger.Logger
	queue chan Event
	done  chan struct{}
}

func NewDispatcher(pub Publisher, log *logger.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		pub:   pub,
		log:   log,
		queue: make(chan Event, buffer),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// LoanFullyFunded satisfies the lifecycle's Notifier contract.
func (d *Dispatcher) LoanFullyFunded(loanID uint64) {
	ev := Event{
		EventID:    id.New32(),
		LoanID:     loanID,
		OccurredAt: time.Now().UTC(),
	}
	select {
	case d.queue <- ev:
		metrics.NotifyEvents.WithLabelValues(metrics.OutcomeQueued).Inc()
	default:
		metrics.NotifyEvents.WithLabelValues(metrics.OutcomeDropped).Inc()
		d.log.Warn("notify queue full, event dropped", "loan_id", loanID)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := d.pub.Publish(ctx, ev)
		cancel()
		if err != nil {
			metrics.NotifyEvents.WithLabelValues(metrics.OutcomeFailed).Inc()
			d.log.Error("publish fully-funded event failed", "loan_id", ev.LoanID, "event_id", ev.EventID, "err", err)
			continue
		}
		metrics.NotifyEvents.WithLabelValues(metrics.OutcomePublished).Inc()
		d.log.Info("fully-funded event published", "loan_id", ev.LoanID, "event_id", ev.EventID)
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}
