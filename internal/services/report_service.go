// Package services orchestrates the report lifecycle: validation,
// normalization, artifact rendering, persistence and cleanup, in that
// order. Two invariants hold on every path: a row never references an
// artifact that has not been confirmed written, and no file is deleted
// before the database state that stops referencing it has been committed.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"lapor/internal/audit"
	"lapor/internal/core"
	"lapor/internal/render"
)

// ReportStore is the persistence boundary the coordinator drives.
type ReportStore interface {
	InsertReport(ctx context.Context, rep core.Report) (int64, error)
	UpdateReport(ctx context.Context, id int64, rep core.Report) error
	GetReport(ctx context.Context, id int64) (core.Report, error)
	DeleteReport(ctx context.Context, id int64) error
}

// FileStore is the file-system boundary. Remove is idempotent.
type FileStore interface {
	Exists(path string) bool
	Remove(path string) error
}

// SyncPublisher queues a committed report for the recap mirror.
type SyncPublisher interface {
	PublishReportSync(ctx context.Context, reportID int64) error
}

// ReportService coordinates report submissions end to end. All
// collaborators are injected; none are reached through globals.
type ReportService struct {
	store         ReportStore
	files         FileStore
	renderer      render.Renderer
	emitter       audit.Emitter
	publisher     SyncPublisher // may be nil
	reportsDir    string
	renderTimeout time.Duration
	logger        *slog.Logger
	locks         *keyedLocks
	now           func() time.Time
}

func NewReportService(
	store ReportStore,
	files FileStore,
	renderer render.Renderer,
	emitter audit.Emitter,
	publisher SyncPublisher,
	reportsDir string,
	renderTimeout time.Duration,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		store:         store,
		files:         files,
		renderer:      renderer,
		emitter:       emitter,
		publisher:     publisher,
		reportsDir:    reportsDir,
		renderTimeout: renderTimeout,
		logger:        logger,
		locks:         newKeyedLocks(),
		now:           time.Now,
	}
}

// Create runs the create path: validate, normalize, render a fresh
// artifact, insert the row, emit the audit event. A renderer failure
// leaves nothing behind; a storage failure removes the orphaned artifact.
func (s *ReportService) Create(ctx context.Context, actorID int64, draft core.ReportDraft) (core.Report, error) {
	start := s.now()
	lc := newLifecycle("create", s.logger)

	rep, err := s.normalize(ctx, lc, draft)
	if err != nil {
		lc.to(ctx, StateRejected)
		return core.Report{}, err
	}
	rep.UserID = actorID

	s.logger.InfoContext(ctx, "Processing new report submission",
		"division", rep.Division,
		"month", rep.Month,
		"has_attachment", rep.Attachment != nil,
		"user_id", actorID)

	lc.to(ctx, StateRendering)
	artifact, err := s.renderArtifact(ctx, rep)
	if err != nil {
		lc.to(ctx, StateFailed)
		return core.Report{}, &RenderError{Err: err}
	}
	rep.Artifact = artifact

	lc.to(ctx, StatePersisting)
	id, err := s.store.InsertReport(ctx, rep)
	if err != nil {
		// The row was never written, so the fresh artifact is an orphan.
		s.removeCompensating(ctx, artifact.Path)
		lc.to(ctx, StateFailed)
		return core.Report{}, &PersistenceError{Err: err}
	}
	rep.ID = id

	lc.to(ctx, StateCommitted)
	s.afterCommit(ctx, actorID, audit.ActionCreateReport, rep, start)

	s.logger.InfoContext(ctx, "Report created successfully",
		"report_id", id,
		"artifact", artifact.Filename,
		"duration_ms", s.now().Sub(start).Milliseconds())

	return rep, nil
}

// Update runs the update path under the per-report lock. The old artifact
// stays on disk untouched until the row points at the new one; only then
// are the superseded files removed, best-effort.
func (s *ReportService) Update(ctx context.Context, actorID int64, id int64, draft core.ReportDraft) (core.Report, error) {
	start := s.now()
	lc := newLifecycle("update", s.logger)

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	old, err := s.store.GetReport(ctx, id)
	if err != nil {
		lc.to(ctx, StateRejected)
		return core.Report{}, err
	}

	rep, err := s.normalize(ctx, lc, draft.MergeInto(old))
	if err != nil {
		lc.to(ctx, StateRejected)
		return core.Report{}, err
	}
	rep.ID = id
	rep.UserID = old.UserID
	rep.CreatedAt = old.CreatedAt

	// Omitted fields retain old values; that covers the ledger and totals
	// too when the draft has no financial input at all.
	if !draft.HasFinancials() {
		rep.Ledger = old.Ledger
		rep.TotalIncome = old.TotalIncome
		rep.TotalExpense = old.TotalExpense
	}

	// A new attachment supersedes the old one; otherwise the old one rides along.
	var oldAttachmentPath string
	if draft.Attachment != nil {
		if old.Attachment != nil && s.files.Exists(old.Attachment.Path) {
			oldAttachmentPath = old.Attachment.Path
		}
	} else {
		rep.Attachment = old.Attachment
	}

	lc.to(ctx, StateRendering)
	artifact, err := s.renderArtifact(ctx, rep)
	if err != nil {
		lc.to(ctx, StateFailed)
		return core.Report{}, &RenderError{Err: err}
	}
	rep.Artifact = artifact

	lc.to(ctx, StatePersisting)
	if err := s.store.UpdateReport(ctx, id, rep); err != nil {
		// The committed row still references the old artifact, which must
		// survive. Only the unreferenced new file goes.
		s.removeCompensating(ctx, artifact.Path)
		lc.to(ctx, StateFailed)
		return core.Report{}, &PersistenceError{Err: err}
	}

	lc.to(ctx, StateCleaningUp)
	s.removeBestEffort(ctx, old.Artifact.Path)
	s.removeBestEffort(ctx, oldAttachmentPath)

	lc.to(ctx, StateCommitted)
	s.afterCommit(ctx, actorID, audit.ActionUpdateReport, rep, start)

	return rep, nil
}

// Delete removes the row first; the files go only after the row delete
// committed, so a storage failure cannot leave a row pointing at nothing.
func (s *ReportService) Delete(ctx context.Context, actorID int64, id int64) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	rep, err := s.store.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteReport(ctx, id); err != nil {
		return &PersistenceError{Err: err}
	}

	s.removeBestEffort(ctx, rep.Artifact.Path)
	if rep.Attachment != nil {
		s.removeBestEffort(ctx, rep.Attachment.Path)
	}

	s.emitter.Emit(ctx, audit.Event{
		ActorID:      actorID,
		Action:       audit.ActionDeleteReport,
		ResourceType: audit.ResourceReport,
		ResourceID:   strconv.FormatInt(id, 10),
		Details: map[string]any{
			"division": rep.Division,
			"month":    rep.Month,
		},
		At: s.now(),
	})
	return nil
}

// normalize runs VALIDATING and NORMALIZING, producing the canonical
// report candidate. Everything it rejects is user-correctable.
func (s *ReportService) normalize(ctx context.Context, lc *lifecycle, draft core.ReportDraft) (core.Report, error) {
	if err := draft.Validate(); err != nil {
		return core.Report{}, err
	}

	lc.to(ctx, StateNormalizing)
	month, err := core.NormalizeMonth(draft.Month)
	if err != nil {
		return core.Report{}, err
	}
	if core.MonthAfter(month, core.CurrentMonthKey(s.now())) {
		return core.Report{}, core.ErrFutureMonth
	}

	ledger, err := core.BuildLedger(draft)
	if err != nil {
		return core.Report{}, err
	}
	income, expense, err := core.ResolveTotals(draft, ledger)
	if err != nil {
		return core.Report{}, err
	}

	return core.Report{
		Division:     draft.ResolvedDivision(),
		Month:        month,
		Reporter:     draft.Reporter,
		WorkProgram:  draft.WorkProgram,
		TotalIncome:  income,
		TotalExpense: expense,
		Evaluation:   draft.Evaluation,
		Plan:         draft.Plan,
		Ledger:       ledger,
		Attachment:   draft.Attachment,
		Status:       core.StatusSubmitted,
	}, nil
}

// renderArtifact generates a uniquely named artifact under a bounded
// timeout. Rendering holds no database state while it runs.
func (s *ReportService) renderArtifact(ctx context.Context, rep core.Report) (core.FileRef, error) {
	filename := artifactName(rep.Division, rep.Month, s.now())
	path := filepath.Join(s.reportsDir, filename)

	renderCtx := ctx
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
	}

	doc := render.DocumentFor(rep, s.now())
	if err := s.renderer.Render(renderCtx, doc, path); err != nil {
		return core.FileRef{}, err
	}
	return core.FileRef{Filename: filename, Path: path}, nil
}

func (s *ReportService) afterCommit(ctx context.Context, actorID int64, action string, rep core.Report, start time.Time) {
	s.emitter.Emit(ctx, audit.Event{
		ActorID:      actorID,
		Action:       action,
		ResourceType: audit.ResourceReport,
		ResourceID:   strconv.FormatInt(rep.ID, 10),
		Details: map[string]any{
			"division":        rep.Division,
			"month":           rep.Month,
			"processing_time": fmt.Sprintf("%dms", s.now().Sub(start).Milliseconds()),
			"has_attachment":  rep.Attachment != nil,
		},
		At: s.now(),
	})

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReportSync(ctx, rep.ID); err != nil {
		// The report is committed; the startup sweep will pick it up.
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			"report_id", rep.ID,
			"error", err)
	}
}

// removeCompensating deletes a file created during a step whose downstream
// failed. Failure to delete is a leak, logged and swallowed.
func (s *ReportService) removeCompensating(ctx context.Context, path string) {
	if err := s.files.Remove(path); err != nil {
		s.logger.ErrorContext(ctx, "Compensating artifact cleanup failed",
			"path", path,
			"error", err)
	}
}

func (s *ReportService) removeBestEffort(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.logger.WarnContext(ctx, "Post-commit file cleanup failed",
			"path", path,
			"error", err)
	}
}

// artifactName builds a collision-free file name from division, month,
// submission time and a random suffix.
func artifactName(division, month string, t time.Time) string {
	div := strings.Join(strings.Fields(division), "_")
	return fmt.Sprintf("LPJ_%s_%s_%d_%s.pdf", div, month, t.UnixMilli(), uuid.NewString()[:8])
}
