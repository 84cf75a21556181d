// Package audit records a structured event for every committed report
// lifecycle transition. Emission is fire-and-forget: a failed emit is
// logged and never rolls back or fails the transition it describes.
package audit

import (
	"context"
	"log/slog"
	"time"

	"lapor/internal/amqp"
)

// Actions tagged on audit events.
const (
	ActionCreateReport = "CREATE_REPORT"
	ActionUpdateReport = "UPDATE_REPORT"
	ActionDeleteReport = "DELETE_REPORT"
)

// ResourceReport is the resource type for report events.
const ResourceReport = "report"

// Event is one committed lifecycle transition.
type Event struct {
	ActorID      int64
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	At           time.Time
}

// Emitter delivers events to the audit trail. Implementations must not
// return errors to the caller; emission failure is their own problem.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// LogEmitter writes audit events to the structured log. It doubles as the
// fallback when no broker is configured.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(ctx context.Context, e Event) {
	l.logger.InfoContext(ctx, "AUDIT: "+e.Action,
		"user_id", e.ActorID,
		"resource_type", e.ResourceType,
		"resource_id", e.ResourceID,
		"details", e.Details)
}

// AMQPEmitter publishes events onto the report events queue so the worker
// can persist them. Publish failures degrade to the log.
type AMQPEmitter struct {
	client *amqp.Client
	logger *slog.Logger
}

func NewAMQPEmitter(client *amqp.Client, logger *slog.Logger) *AMQPEmitter {
	return &AMQPEmitter{client: client, logger: logger}
}

func (a *AMQPEmitter) Emit(ctx context.Context, e Event) {
	msg := amqp.NewAuditEventMessage(e.ActorID, e.Action, e.ResourceType, e.ResourceID, e.Details)
	if !e.At.IsZero() {
		msg.Timestamp = e.At
	}
	if err := a.client.PublishAuditEvent(ctx, msg); err != nil {
		a.logger.ErrorContext(ctx, "Failed to publish audit event",
			"error", err,
			"action", e.Action,
			"resource_id", e.ResourceID)
	}
}
