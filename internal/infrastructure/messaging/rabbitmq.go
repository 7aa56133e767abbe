package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// ErrNotConnected is returned when the client is used before Connect or after Close.
var ErrNotConnected = errors.New("rabbitmq: not connected")

// ErrDeliveriesClosed is returned by Consume when the broker closes the channel.
var ErrDeliveriesClosed = errors.New("rabbitmq: delivery channel closed")

// Delivery is the part of an AMQP delivery a handler needs.
type Delivery struct {
	RoutingKey    string
	Body          []byte
	Redelivered   bool
	ReplyTo       string
	CorrelationID string
}

// Handler processes one delivery. A non-nil result is published to the delivery's
// ReplyTo queue. A non-nil error nacks the delivery.
type Handler func(ctx context.Context, d Delivery) (any, error)

// Binding ties a queue to routing keys on the user exchange.
type Binding struct {
	Queue       string
	RoutingKeys []string
}

// UserTopology is the exchange layout the admin service consumes from.
var UserTopology = []Binding{
	{
		Queue:       entity.QueueUser,
		RoutingKeys: []string{entity.RoutingKeyUserCreated, entity.RoutingKeyUserDeleted, entity.RoutingKeyUserReset},
	},
	{
		Queue:       entity.QueueBulkRegistration,
		RoutingKeys: []string{entity.RoutingKeyBulkRegistration},
	},
}

// Client owns one AMQP connection, a publishing channel and one channel per consumer.
type Client struct {
	logger   usecasecontract.IAppLogger
	prefetch int

	mu    sync.Mutex
	conn  *amqp.Connection
	pubCh *amqp.Channel

	// reply is swapped in tests
	reply func(ctx context.Context, replyTo, correlationID string, body []byte) error
}

var _ contract.IMessagePublisher = (*Client)(nil)

func NewClient(logger usecasecontract.IAppLogger, prefetch int) *Client {
	if prefetch <= 0 {
		prefetch = 10
	}
	c := &Client{logger: logger, prefetch: prefetch}
	c.reply = c.publishReply
	return c
}

// Connect dials the broker and opens the publishing channel.
func (c *Client) Connect(ctx context.Context, url string) error {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: amqp.Table{"connection_name": "gatekeeper"},
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: 10 * time.Second}
			return d.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	pubCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	c.mu.Lock()
	c.conn, c.pubCh = conn, pubCh
	c.mu.Unlock()

	go func() {
		if err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1)); ok && err != nil {
			c.logger.Errorf("rabbitmq connection closed: %v", err)
		}
	}()
	c.logger.Infof("connected to rabbitmq")
	return nil
}

// Close shuts the publishing channel and the connection. Consumers see their delivery
// channels close and return.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	if c.pubCh != nil {
		_ = c.pubCh.Close()
	}
	err := c.conn.Close()
	c.conn, c.pubCh = nil, nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

// DeclareTopology declares the durable topic exchange, the queues and their bindings.
func (c *Client) DeclareTopology() error {
	c.mu.Lock()
	ch := c.pubCh
	c.mu.Unlock()
	if ch == nil {
		return ErrNotConnected
	}
	if err := ch.ExchangeDeclare(entity.UserExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", entity.UserExchange, err)
	}
	for _, b := range UserTopology {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		for _, key := range b.RoutingKeys {
			if err := ch.QueueBind(b.Queue, key, entity.UserExchange, false, nil); err != nil {
				return fmt.Errorf("bind %s to %s: %w", b.Queue, key, err)
			}
		}
	}
	return nil
}

// Consume delivers messages from queue to handler one at a time until ctx is done or the
// broker closes the channel.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	consumerTag := "gatekeeper-" + queue
	deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}
	c.logger.Infof("consuming from %s", queue)

	for {
		select {
		case <-ctx.Done():
			_ = ch.Cancel(consumerTag, false)
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.process(ctx, d, handler)
		}
	}
}

// process runs handler and settles the delivery: ack on success, nack on error with a
// single requeue.
func (c *Client) process(ctx context.Context, d amqp.Delivery, handler Handler) {
	result, err := handler(ctx, Delivery{
		RoutingKey:    d.RoutingKey,
		Body:          d.Body,
		Redelivered:   d.Redelivered,
		ReplyTo:       d.ReplyTo,
		CorrelationID: d.CorrelationId,
	})
	if err != nil {
		requeue := !d.Redelivered
		c.logger.Errorf("failed to handle %s message (requeue=%t): %v", d.RoutingKey, requeue, err)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			c.logger.Errorf("failed to nack %s message: %v", d.RoutingKey, nackErr)
		}
		return
	}

	if d.ReplyTo != "" && result != nil {
		body, err := json.Marshal(result)
		if err != nil {
			c.logger.Errorf("failed to encode %s result: %v", d.RoutingKey, err)
		} else if err := c.reply(ctx, d.ReplyTo, d.CorrelationId, body); err != nil {
			c.logger.Errorf("failed to publish %s result to %s: %v", d.RoutingKey, d.ReplyTo, err)
		}
	}
	if err := d.Ack(false); err != nil {
		c.logger.Errorf("failed to ack %s message: %v", d.RoutingKey, err)
	}
}

// Publish sends payload as persistent JSON to the user exchange.
func (c *Client) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return c.publish(ctx, entity.UserExchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (c *Client) publishReply(ctx context.Context, replyTo, correlationID string, body []byte) error {
	return c.publish(ctx, "", replyTo, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
}

// amqp channels are not safe for concurrent publishing
func (c *Client) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pubCh == nil {
		return ErrNotConnected
	}
	if err := c.pubCh.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %q/%q: %w", exchange, key, err)
	}
	return nil
}
