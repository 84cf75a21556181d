// Package worker consumes report events off the queue: audit events are
// persisted to the audit_logs table and sync messages mirror committed
// reports into the recap spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lapor/internal/amqp"
	"lapor/internal/core"
	"lapor/internal/sheets"
	"lapor/internal/storage"
)

// Store is the slice of the repository the worker drives.
type Store interface {
	GetReport(ctx context.Context, id int64) (core.Report, error)
	ListPendingSync(ctx context.Context, limit int) ([]core.Report, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
	InsertAuditLog(ctx context.Context, rec storage.AuditRecord) error
}

// RecapWorker mirrors reports into the recap sheet and records audit
// events. The database stays authoritative; a failed mirror only flips
// the report's sync state.
type RecapWorker struct {
	store     Store
	recap     sheets.RecapAppender
	batchSize int
}

func NewRecapWorker(store Store, recap sheets.RecapAppender, batchSize int) *RecapWorker {
	return &RecapWorker{
		store:     store,
		recap:     recap,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single report sync message. The message
// carries only the id; the authoritative row is read back from storage.
func (w *RecapWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ReportSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "report_id", msg.ReportID)

	rep, err := w.store.GetReport(ctx, msg.ReportID)
	if err != nil {
		// The report may have been deleted between publish and consume.
		if errors.Is(err, core.ErrReportNotFound) {
			slog.WarnContext(ctx, "Report gone before sync, dropping message",
				"report_id", msg.ReportID)
			return nil
		}
		return fmt.Errorf("get report from storage: %w", err)
	}

	return w.mirrorReport(ctx, rep)
}

// HandleAuditMessage persists one audit event row.
func (w *RecapWorker) HandleAuditMessage(ctx context.Context, msg *amqp.AuditEventMessage) error {
	if err := w.store.InsertAuditLog(ctx, storage.AuditRecord{
		UserID:       msg.ActorID,
		Action:       msg.Action,
		ResourceType: msg.ResourceType,
		ResourceID:   msg.ResourceID,
		Details:      msg.Details,
	}); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ProcessPending sweeps reports whose sync message was lost. Called
// periodically as a backup for the queue.
func (w *RecapWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending reports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending reports", "count", len(pending))
	for _, rep := range pending {
		if err := w.mirrorReport(ctx, rep); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror report", "report_id", rep.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup,
// recovering from missed messages or worker downtime.
func (w *RecapWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending reports for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending reports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending reports on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, rep := range pending {
		if err := w.mirrorReport(ctx, rep); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror report during startup",
				"report_id", rep.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *RecapWorker) mirrorReport(ctx context.Context, rep core.Report) error {
	ref, err := w.recap.AppendRecapRow(ctx, rep)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, rep.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"report_id", rep.ID, "error", markErr)
		}
		return fmt.Errorf("append recap row: %w", err)
	}

	if err := w.store.MarkSynced(ctx, rep.ID); err != nil {
		// The mirror itself succeeded; the sweep will retry the flag.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"report_id", rep.ID, "error", err)
	}

	slog.InfoContext(ctx, "Report mirrored to recap sheet",
		"report_id", rep.ID,
		"recap_ref", ref,
		"division", rep.Division,
		"month", rep.Month)
	return nil
}
