package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishAuditEvent publishes a committed lifecycle transition.
func (c *Client) PublishAuditEvent(ctx context.Context, msg *AuditEventMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return c.publish(ctx, body)
}

// PublishReportSync publishes a recap sync request for one report.
func (c *Client) PublishReportSync(ctx context.Context, reportID int64) error {
	body, err := NewReportSyncMessage(reportID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return c.publish(ctx, body)
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Consume dispatches queue deliveries to the per-type handlers until ctx
// ends. A handler error nacks with requeue; an unknown or malformed
// message is rejected without requeue.
func (c *Client) Consume(
	ctx context.Context,
	auditHandler func(context.Context, *AuditEventMessage) error,
	syncHandler func(context.Context, *ReportSyncMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming report event messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := c.dispatch(ctx, delivery.Body, auditHandler, syncHandler); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message", "error", err)
				delivery.Nack(false, !isMalformed(err))
				continue
			}
			delivery.Ack(false)
		}
	}
}

type malformedError struct{ err error }

func (e malformedError) Error() string { return e.err.Error() }
func (e malformedError) Unwrap() error { return e.err }

func isMalformed(err error) bool {
	_, ok := err.(malformedError)
	return ok
}

func (c *Client) dispatch(
	ctx context.Context,
	body []byte,
	auditHandler func(context.Context, *AuditEventMessage) error,
	syncHandler func(context.Context, *ReportSyncMessage) error,
) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return malformedError{fmt.Errorf("unmarshal envelope: %w", err)}
	}

	switch env.Type {
	case TypeAuditEvent:
		var msg AuditEventMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return malformedError{fmt.Errorf("unmarshal audit event: %w", err)}
		}
		return auditHandler(ctx, &msg)
	case TypeReportSync:
		var msg ReportSyncMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return malformedError{fmt.Errorf("unmarshal report sync: %w", err)}
		}
		return syncHandler(ctx, &msg)
	default:
		return malformedError{fmt.Errorf("unknown message type %q", env.Type)}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
