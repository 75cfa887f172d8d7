package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TopicCampaignDispatch carries DispatchJob messages.
const TopicCampaignDispatch = "campaign_dispatch"

// DispatchJob asks a worker to perform one dispatch.
type DispatchJob struct {
	DispatchID string `json:"dispatch_id"`
}

// Handler processes one message body. A non-nil error asks the queue to
// deliver the message again.
type Handler func(ctx context.Context, body []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

// InMemoryQueue delivers messages to in-process subscribers with retry
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	wg         sync.WaitGroup
	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// job wraps a message body with retry info
type job struct {
	topic      string
	body       []byte
	retryCount int
}

// Publish sends a message to all subscribers. Handlers run detached from
// ctx's cancellation but keep its values.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	ctx = context.WithoutCancel(ctx)
	for _, handler := range handlers {
		q.wg.Add(1)
		go func(h Handler) {
			defer q.wg.Done()
			q.processJob(ctx, h, job{topic: topic, body: body})
		}(handler)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(ctx context.Context, handler Handler, j job) {
	for {
		err := handler(ctx, j.body)
		if err == nil {
			log.Debug().Str("topic", j.topic).RawJSON("payload", j.body).Msg("job processed")
			return
		}

		j.retryCount++
		if j.retryCount > q.MaxRetries {
			log.Error().Err(err).Str("topic", j.topic).RawJSON("payload", j.body).
				Int("attempts", j.retryCount).Msg("job permanently failed")
			return
		}
		log.Warn().Err(err).Str("topic", j.topic).RawJSON("payload", j.body).
			Int("attempt", j.retryCount).Int("max_retries", q.MaxRetries).Msg("job failed, retrying")

		time.Sleep(time.Duration(j.retryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close waits for in-flight jobs to finish.
func (q *InMemoryQueue) Close() error {
	q.wg.Wait()
	return nil
}

// DispatchProcessor performs a dispatch by ID.
type DispatchProcessor interface {
	ProcessDispatch(ctx context.Context, dispatchID string) error
}

// DispatchHandler decodes DispatchJob messages and hands them to p.
// Malformed messages are dropped.
func DispatchHandler(p DispatchProcessor) Handler {
	return func(ctx context.Context, body []byte) error {
		var j DispatchJob
		if err := json.Unmarshal(body, &j); err != nil || j.DispatchID == "" {
			log.Warn().RawJSON("payload", body).Msg("invalid dispatch job, dropping")
			return nil
		}

		logger := log.With().Str("dispatch_id", j.DispatchID).Logger()
		ctx = logger.WithContext(ctx)
		logger.Info().Msg("processing dispatch")

		if err := p.ProcessDispatch(ctx, j.DispatchID); err != nil {
			logger.Warn().Err(err).Msg("dispatch failed")
			return err
		}
		return nil
	}
}

// StartDispatchSubscriber wires the dispatch processor to the queue.
func StartDispatchSubscriber(q Queue, p DispatchProcessor) error {
	if err := q.Subscribe(TopicCampaignDispatch, DispatchHandler(p)); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCampaignDispatch, err)
	}
	return nil
}
