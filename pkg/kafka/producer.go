package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

const defaultBatchTimeout = 10 * time.Millisecond

// Message is a record to write. Key selects the partition.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer writes keyed messages with acks from all in-sync replicas. Writers
// are created per topic on first use and shared afterwards.
type Producer struct {
	mu           sync.Mutex
	writers      map[string]*kafkago.Writer
	brokers      []string
	batchTimeout time.Duration
	transport    *kafkago.Transport
}

// NewProducer validates the security settings and returns a producer. No
// connection is made until the first Publish.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	p := &Producer{
		writers:      make(map[string]*kafkago.Writer),
		brokers:      cfg.Brokers,
		batchTimeout: cfg.BatchTimeout,
	}
	if p.batchTimeout <= 0 {
		p.batchTimeout = defaultBatchTimeout
	}

	if !cfg.TLS && !cfg.SASLEnabled {
		return p, nil
	}
	p.transport = &kafkago.Transport{}
	if cfg.TLS {
		p.transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.SASLEnabled {
		mech, err := saslMechanism(cfg)
		if err != nil {
			return nil, err
		}
		p.transport.SASL = mech
	}
	return p, nil
}

// saslMechanism maps a mechanism name to its implementation. An empty name
// means PLAIN.
func saslMechanism(cfg Config) (sasl.Mechanism, error) {
	var algo scram.Algorithm
	switch cfg.SASLMechanism {
	case "", "PLAIN":
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case "SCRAM-SHA-256":
		algo = scram.SHA256
	case "SCRAM-SHA-512":
		algo = scram.SHA512
	default:
		return nil, fmt.Errorf("kafka: unsupported SASL mechanism %q", cfg.SASLMechanism)
	}
	mech, err := scram.Mechanism(algo, cfg.SASLUsername, cfg.SASLPassword)
	if err != nil {
		return nil, fmt.Errorf("kafka: %s: %w", cfg.SASLMechanism, err)
	}
	return mech, nil
}

// Publish writes messages to topic as one batch. It blocks until the brokers
// acknowledge or ctx ends.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := make([]kafkago.Message, len(messages))
	for i, msg := range messages {
		batch[i] = kafkago.Message{Key: msg.Key, Value: msg.Value}
		for k, v := range msg.Headers {
			batch[i].Headers = append(batch[i].Headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
	}

	if err := p.writer(topic).WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("kafka: write %d message(s) to %s: %w", len(batch), topic, err)
	}
	return nil
}

// Close flushes and closes every writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: close writer for %s: %w", topic, err))
		}
	}
	clear(p.writers)
	return errors.Join(errs...)
}

func (p *Producer) writer(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           p.batchTimeout,
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if p.transport != nil {
		w.Transport = p.transport
	}
	p.writers[topic] = w
	return w
}
