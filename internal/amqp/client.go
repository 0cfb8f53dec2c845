package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second

	// Failed exports wait retryDelay in the retry queue before redelivery
	// and are parked in the dead queue after maxRetries attempts.
	retryDelay  = 30 * time.Second
	maxRetries  = 5
	retryHeader = "x-retry-count"
)

// Handler processes one export request. Returning a validation or not-found
// error parks the message in the dead queue; any other error schedules a
// delayed retry.
type Handler func(ctx context.Context, msg *ReportExportMessage) error

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu          sync.Mutex
	conn        *amqp091.Connection
	channel     *amqp091.Channel
	lastFailure time.Time

	state        int32
	failureCount int64

	// republish overrides publishRetry in tests.
	republish func(ctx context.Context, d amqp091.Delivery, retries int) error
}

func retryQueue(queue string) string { return queue + ".retry" }

func deadQueue(queue string) string { return queue + ".dead" }

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}
	if _, err := c.ensureChannel(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) clientLogger() *log.Logger {
	if c.logger == nil {
		return log.Discard()
	}
	return c.logger.WithComponent(log.ComponentAMQP)
}

// ensureChannel returns an open channel, reconnecting if needed.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp091.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("dial AMQP: %w", err)
		}
		c.conn = conn
		c.channel = nil
	}
	if c.channel == nil || c.channel.IsClosed() {
		ch, err := c.conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("open channel: %w", err)
		}
		if err := setup(ch, c.exchangeName, c.queueName); err != nil {
			ch.Close()
			return nil, fmt.Errorf("setup exchange and queue: %w", err)
		}
		c.channel = ch
	}
	return c.channel, nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Rejected exports go to the dead queue; the retry queue holds failed
	// ones for retryDelay and then routes them back to the main queue.
	queues := []struct {
		name string
		args amqp091.Table
	}{
		{queueName, amqp091.Table{
			"x-dead-letter-exchange":    exchangeName,
			"x-dead-letter-routing-key": deadQueue(queueName),
		}},
		{retryQueue(queueName), amqp091.Table{
			"x-message-ttl":             retryDelay.Milliseconds(),
			"x-dead-letter-exchange":    exchangeName,
			"x-dead-letter-routing-key": queueName,
		}},
		{deadQueue(queueName), nil},
	}
	for _, q := range queues {
		_, err = ch.QueueDeclare(
			q.name, // name
			true,   // durable
			false,  // delete when unused
			false,  // exclusive
			false,  // no-wait
			q.args, // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
		// routing key is the queue name
		if err := ch.QueueBind(q.name, q.name, exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q.name, err)
		}
	}
	return nil
}

func (c *Client) resetConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// PublishExport publishes an export request as a persistent message.
func (c *Client) PublishExport(ctx context.Context, msg *ReportExportMessage) error {
	if c.isCircuitOpen() {
		return errors.New("publish export: circuit breaker is open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			Timestamp:     time.Now(),
			CorrelationId: msg.RequestID,
			Body:          body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.resetConnection()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.clientLogger().InfoContext(ctx, "Published report export message",
		log.FieldUserID, msg.UserID,
		log.FieldStartDate, msg.StartDate,
		log.FieldEndDate, msg.EndDate,
		log.FieldFormat, msg.Format,
		"queue", c.queueName)
	return nil
}

// ConsumeExports delivers export requests to handler until ctx is done,
// reconnecting with exponential backoff when the broker goes away.
func (c *Client) ConsumeExports(ctx context.Context, handler Handler) error {
	logger := c.clientLogger()
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler, &attempt)
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}

		wait := exponentialBackoff(attempt)
		logger.WarnContext(ctx, "Consumer interrupted, reconnecting",
			log.FieldError, err,
			"attempt", attempt+1,
			"backoff", wait.String())
		c.resetConnection()
		attempt++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler Handler, attempt *int) error {
	logger := c.clientLogger()
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	*attempt = 0
	logger.InfoContext(ctx, "Started consuming report export messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler Handler) {
	logger := c.clientLogger()

	msg, err := ReportExportMessageFromJSON(delivery.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Dead-lettering malformed export message", log.FieldError, err)
		delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		retries := retryCount(delivery.Headers)
		retry := !core.IsValidation(err) && !errors.Is(err, core.ErrNotFound) && retries < maxRetries
		logger.ErrorContext(ctx, "Failed to handle export message",
			log.FieldError, err,
			log.FieldUserID, msg.UserID,
			"retries", retries,
			"retry", retry)
		if !retry {
			delivery.Nack(false, false)
			return
		}

		republish := c.republish
		if republish == nil {
			republish = c.publishRetry
		}
		if err := republish(ctx, delivery, retries+1); err != nil {
			// Without the retry queue fall back to a plain requeue.
			logger.WarnContext(ctx, "Failed to schedule export retry", log.FieldError, err)
			delivery.Nack(false, true)
			return
		}
		delivery.Ack(false)
		return
	}

	delivery.Ack(false)
	logger.InfoContext(ctx, "Processed report export message",
		log.FieldUserID, msg.UserID,
		log.FieldStartDate, msg.StartDate,
		log.FieldEndDate, msg.EndDate)
}

// publishRetry copies the delivery into the retry queue with its retry
// count bumped.
func (c *Client) publishRetry(ctx context.Context, d amqp091.Delivery, retries int) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	headers := amqp091.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retries)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return ch.PublishWithContext(ctx, c.exchangeName, retryQueue(c.queueName), false, false,
		amqp091.Publishing{
			ContentType:   d.ContentType,
			DeliveryMode:  amqp091.Persistent,
			Timestamp:     time.Now(),
			CorrelationId: d.CorrelationId,
			Headers:       headers,
			Body:          d.Body,
		})
}

// retryCount reads the retry header; brokers may hand it back as any
// integer width.
func retryCount(h amqp091.Table) int {
	switch v := h[retryHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"connection reset",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
