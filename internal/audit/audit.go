// Package audit records who changed what. Recording is fire-and-forget: a sink
// failure is logged and never reaches the mutation that produced the entry.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Recorder is what services call after a successful mutation.
type Recorder interface {
	Record(ctx context.Context, actor domain.Actor, action, details, affectedResource string)
}

// Sink persists or forwards a single entry.
type Sink interface {
	Write(ctx context.Context, entry domain.ActivityLog) error
}

type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const publishAttempts = 3

// KafkaSink publishes entries to the audit topic keyed by user id.
type KafkaSink struct {
	producer Publisher
	topic    string
}

func NewKafkaSink(producer Publisher, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Write(ctx context.Context, entry domain.ActivityLog) error {
	return s.producer.PublishWithRetry(ctx, s.topic, entry.UserID, kafka.NewAuditEvent(entry), publishAttempts)
}

// RepositorySink inserts entries directly.
type RepositorySink struct {
	repo repository.ActivityRepository
}

func NewRepositorySink(repo repository.ActivityRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Write(ctx context.Context, entry domain.ActivityLog) error {
	return s.repo.Insert(ctx, &entry)
}

const writeTimeout = 5 * time.Second

// Dispatcher buffers entries and writes them to a sink from a background goroutine.
// When the buffer is full the entry is dropped with a warning.
type Dispatcher struct {
	sink  Sink
	queue chan domain.ActivityLog
	log   logrus.FieldLogger
	now   func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(sink Sink, bufferSize int, log logrus.FieldLogger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Dispatcher{
		sink:  sink,
		queue: make(chan domain.ActivityLog, bufferSize),
		log:   log,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Record(_ context.Context, actor domain.Actor, action, details, affectedResource string) {
	entry := domain.ActivityLog{
		ID:               uuid.NewString(),
		UserID:           actor.ID,
		UserName:         actor.Name,
		Action:           action,
		Details:          details,
		AffectedResource: affectedResource,
		Timestamp:        d.now().UTC(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.WithField("action", action).Warn("audit dispatcher closed, entry dropped")
		return
	}
	select {
	case d.queue <- entry:
	default:
		d.log.WithFields(logrus.Fields{"action": action, "user_id": actor.ID}).Warn("audit buffer full, entry dropped")
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for entry := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := d.sink.Write(ctx, entry); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"action":   entry.Action,
				"user_id":  entry.UserID,
				"entry_id": entry.ID,
			}).Warn("audit write failed")
		}
		cancel()
	}
}

// Close stops accepting entries and waits until the buffer is drained or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, domain.Actor, string, string, string) {}

var (
	_ Recorder = (*Dispatcher)(nil)
	_ Recorder = Nop{}
	_ Sink     = (*KafkaSink)(nil)
	_ Sink     = (*RepositorySink)(nil)
)
