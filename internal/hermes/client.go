package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client publishes Versus events and delivers subscribed subjects.
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

const opTimeout = 5 * time.Second

// NATSClient persists events in the VERSUS_EVENTS stream. Subscriptions use
// durable consumers named after the instance, so messages published while the
// service is down are delivered on restart.
type NATSClient struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	instance string
	logger   *slog.Logger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
	subs     []*nats.Subscription
}

// NewNATSClient connects to url. instance names this service's durable
// consumers; replicas that must each see every event need distinct names.
func NewNATSClient(ctx context.Context, url, instance string, logger *slog.Logger) (*NATSClient, error) {
	if instance == "" {
		instance = "versus"
	}
	nc, err := nats.Connect(url,
		nats.Name(instance),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, instance: instance, logger: logger}
	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure stream", "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, _ := time.ParseDuration(StreamMaxAge)
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: StreamSubjects,
		MaxAge:   maxAge,
	})
	return err
}

// Publish stores data as JSON in the stream and waits for the ack.
func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := c.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe attaches a durable consumer for subject. Subjects outside the
// stream fall back to a plain subscription without replay.
func (c *NATSClient) Subscribe(subject string, handler func(string, []byte)) error {
	if !InStream(subject) {
		return c.subscribeCore(subject, handler)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	cons, err := c.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       DurableName(c.instance, subject),
		FilterSubject: subject,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		c.logger.Warn("durable consumer unavailable, using core subscription",
			"subject", subject, "error", err)
		return c.subscribeCore(subject, handler)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		handler(msg.Subject(), msg.Data())
		if err := msg.Ack(); err != nil {
			c.logger.Warn("ack failed", "subject", msg.Subject(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", subject, err)
	}

	c.mu.Lock()
	c.consumes = append(c.consumes, cc)
	c.mu.Unlock()
	return nil
}

func (c *NATSClient) subscribeCore(subject string, handler func(string, []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cc := range c.consumes {
		cc.Stop()
	}
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}

// DurableName builds a consumer name from the instance and subject. Consumer
// names may not contain '.', '*' or '>'.
func DurableName(instance, subject string) string {
	r := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	return r.Replace(instance) + "-" + r.Replace(subject)
}

// InStream reports whether subject is captured by the events stream.
func InStream(subject string) bool {
	for _, pattern := range StreamSubjects {
		prefix := strings.TrimSuffix(pattern, ">")
		if strings.HasPrefix(subject, prefix) && len(subject) > len(prefix) {
			return true
		}
	}
	return false
}
