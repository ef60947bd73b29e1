package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the durable queue used when none is configured.
const DefaultConsumerQueueName = "canvas.command.watch"

// ErrConsumerRunning is returned by a second Start.
var ErrConsumerRunning = errors.New("consumer already running")

// RabbitMQConsumerConfig configures a RabbitMQConsumer.
type RabbitMQConsumerConfig struct {
	URL      string
	Queue    string
	Exchange string

	// Transient declares a server-named exclusive queue that disappears with
	// the connection, for watchers that only want live events.
	Transient bool

	Logger *slog.Logger
}

// RabbitMQConsumer feeds events from one queue into a ConsumerRegistry.
// Each registered pattern is bound to the queue.
type RabbitMQConsumer struct {
	mu        sync.Mutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	queue     string
	exchange  string
	registry  *ConsumerRegistry
	logger    *slog.Logger
	running   bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewRabbitMQConsumer connects and declares the queue. registry may already
// hold consumers; their patterns are bound now.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if cfg.Queue == "" && !cfg.Transient {
		cfg.Queue = DefaultConsumerQueueName
	}
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}

	conn, ch, err := dialTopic(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(cfg.Queue, !cfg.Transient, cfg.Transient, cfg.Transient, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	c := &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    q.Name,
		exchange: cfg.Exchange,
		registry: registry,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}
	for _, p := range registry.Patterns() {
		if err := c.bind(p); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	c.logger.Info("RabbitMQ consumer connected", "queue", c.queue, "exchange", c.exchange)
	return c, nil
}

// RegisterConsumer adds consumer to the registry and binds its patterns.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) error {
	c.registry.Register(consumer)
	for _, p := range consumer.EventTypes() {
		if err := c.bind(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *RabbitMQConsumer) bind(pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.QueueBind(c.queue, pattern, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", pattern, err)
	}
	c.logger.Debug("queue bound", "queue", c.queue, "pattern", pattern)
	return nil
}

// Start consumes until ctx is canceled or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrConsumerRunning
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.logger.Info("consuming command events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			c.deliver(ctx, msg)
		}
	}
}

// deliver acks handled messages. Undecodable messages are dropped. A failed
// dispatch is requeued once; a redelivered message that fails again is
// dropped so one poison event cannot stall the queue.
func (c *RabbitMQConsumer) deliver(ctx context.Context, msg amqp.Delivery) {
	var ackErr error
	event, err := DecodeEvent(msg.RoutingKey, msg.Body)
	switch {
	case err != nil:
		c.logger.ErrorContext(ctx, "dropping undecodable event", "error", err)
		ackErr = msg.Reject(false)
	case c.registry.Dispatch(ctx, event) != nil:
		ackErr = msg.Nack(false, !msg.Redelivered)
	default:
		ackErr = msg.Ack(false)
	}
	if ackErr != nil {
		c.logger.ErrorContext(ctx, "failed to settle delivery", "routing_key", msg.RoutingKey, "error", ackErr)
	}
}

// Close stops Start and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		err = c.conn.Close()
		c.logger.Info("RabbitMQ consumer closed")
	})
	return err
}
