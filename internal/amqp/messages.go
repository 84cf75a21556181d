package amqp

import (
	"encoding/json"
	"time"
)

// Message types carried on the report events queue.
const (
	TypeAuditEvent = "audit_event"
	TypeReportSync = "report_sync"
)

// envelope is the minimal shape peeked at to dispatch a delivery.
type envelope struct {
	Type string `json:"type"`
}

// AuditEventMessage carries one committed lifecycle transition to the
// worker, which persists it into audit_logs.
type AuditEventMessage struct {
	Type         string         `json:"type"`
	ActorID      int64          `json:"actor_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	Timestamp    time.Time      `json:"timestamp"`
}

func NewAuditEventMessage(actorID int64, action, resourceType, resourceID string, details map[string]any) *AuditEventMessage {
	return &AuditEventMessage{
		Type:         TypeAuditEvent,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		Timestamp:    time.Now(),
	}
}

// ReportSyncMessage asks the worker to mirror a report into the recap
// sheet. Only the id travels; the worker reads the row itself.
type ReportSyncMessage struct {
	Type      string    `json:"type"`
	ReportID  int64     `json:"report_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportSyncMessage(reportID int64) *ReportSyncMessage {
	return &ReportSyncMessage{
		Type:      TypeReportSync,
		ReportID:  reportID,
		Timestamp: time.Now(),
	}
}

func (m *AuditEventMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }
func (m *ReportSyncMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }
