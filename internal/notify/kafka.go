package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig captures the runtime tunables for the Kafka sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// notification is the wire payload published to the topic.
type notification struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

const queueSize = 256

// KafkaSink publishes notifications to a Kafka topic through a bounded
// queue drained by a single background goroutine. Publish never blocks:
// when the queue is full the notification is dropped, matching the
// fire-and-forget delivery contract.
type KafkaSink struct {
	writer messageWriter
	queue  chan notification

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewKafkaSink builds a sink backed by a kafka-go writer and starts its
// drain loop.
func NewKafkaSink(cfg KafkaConfig) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newKafkaSink(w)
}

func newKafkaSink(w messageWriter) *KafkaSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &KafkaSink{
		writer: w,
		queue:  make(chan notification, queueSize),
		cancel: cancel,
	}
	s.wg.Add(1)
	go s.run(ctx)
	return s
}

// Publish enqueues a notification for delivery. Drops when the queue is
// full or the sink is closed.
func (s *KafkaSink) Publish(title, body string) {
	n := notification{Title: title, Body: body, CreatedAt: time.Now()}
	select {
	case s.queue <- n:
	default:
		log.Printf("[NOTIFY] queue full, dropping notification: %s", title)
	}
}

func (s *KafkaSink) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.queue:
			payload, err := json.Marshal(n)
			if err != nil {
				log.Printf("[NOTIFY] marshal failed: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = s.writer.WriteMessages(writeCtx, kafka.Message{
				Key:   []byte(n.Title),
				Value: payload,
			})
			cancel()
			if err != nil {
				// Best effort only; the ledger never sees this.
				log.Printf("[NOTIFY] publish failed: %v", err)
			}
		}
	}
}

// Close stops the drain loop and closes the underlying writer when it
// supports closing.
func (s *KafkaSink) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
	if c, ok := s.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
