package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lapor/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "lapor.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleReport() core.Report {
	return core.Report{
		UserID:       7,
		Division:     "Pendidikan",
		Month:        "2024-01",
		Reporter:     "Ahmad",
		WorkProgram:  "Kajian rutin",
		TotalIncome:  core.Money{Cents: 150000000},
		TotalExpense: core.Money{Cents: 75000000},
		Evaluation:   "Berjalan lancar",
		Plan:         "Lanjutkan bulan depan",
		Ledger: []core.LedgerEntry{
			{Kind: core.KindIncome, Label: "Donasi", Amount: core.Money{Cents: 150000000}},
			{Kind: core.KindExpense, Label: "Konsumsi", Amount: core.Money{Cents: 75000000}},
		},
		Artifact: core.FileRef{Filename: "LPJ_Pendidikan_2024-01.pdf", Path: "/data/reports/LPJ_Pendidikan_2024-01.pdf"},
		Status:   core.StatusSubmitted,
	}
}

func TestInsertAndGetReport(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.InsertReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := repo.GetReport(ctx, id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	if got.Division != "Pendidikan" || got.Month != "2024-01" || got.Reporter != "Ahmad" {
		t.Errorf("unexpected fields: %+v", got)
	}
	if got.TotalIncome.Cents != 150000000 || got.TotalExpense.Cents != 75000000 {
		t.Errorf("totals = %d / %d", got.TotalIncome.Cents, got.TotalExpense.Cents)
	}
	if len(got.Ledger) != 2 || got.Ledger[0].Label != "Donasi" || got.Ledger[1].Kind != core.KindExpense {
		t.Errorf("ledger = %+v", got.Ledger)
	}
	if got.Artifact.Filename != "LPJ_Pendidikan_2024-01.pdf" {
		t.Errorf("artifact = %+v", got.Artifact)
	}
	if got.Attachment != nil {
		t.Errorf("attachment = %+v, want nil", got.Attachment)
	}
	if got.SyncState != core.SyncPending {
		t.Errorf("sync state = %q, want %q", got.SyncState, core.SyncPending)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestInsertReportWithAttachment(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rep := sampleReport()
	rep.Attachment = &core.FileRef{Filename: "nota.pdf", Path: "/data/uploads/nota.pdf"}
	id, err := repo.InsertReport(ctx, rep)
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	got, err := repo.GetReport(ctx, id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Attachment == nil || got.Attachment.Filename != "nota.pdf" {
		t.Errorf("attachment = %+v", got.Attachment)
	}
}

func TestGetReportNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetReport(context.Background(), 42)
	if !errors.Is(err, core.ErrReportNotFound) {
		t.Fatalf("err = %v, want ErrReportNotFound", err)
	}
}

func TestUpdateReportResetsSyncState(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.InsertReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if err := repo.MarkSynced(ctx, id); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	updated := sampleReport()
	updated.Evaluation = "Revisi evaluasi"
	updated.Artifact = core.FileRef{Filename: "LPJ_v2.pdf", Path: "/data/reports/LPJ_v2.pdf"}
	if err := repo.UpdateReport(ctx, id, updated); err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}

	got, err := repo.GetReport(ctx, id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Evaluation != "Revisi evaluasi" {
		t.Errorf("evaluation = %q", got.Evaluation)
	}
	if got.Artifact.Filename != "LPJ_v2.pdf" {
		t.Errorf("artifact = %+v", got.Artifact)
	}
	if got.SyncState != core.SyncPending {
		t.Errorf("sync state = %q, want pending after update", got.SyncState)
	}
}

func TestUpdateReportNotFound(t *testing.T) {
	repo := testRepo(t)

	err := repo.UpdateReport(context.Background(), 42, sampleReport())
	if !errors.Is(err, core.ErrReportNotFound) {
		t.Fatalf("err = %v, want ErrReportNotFound", err)
	}
}

func TestDeleteReport(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.InsertReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	if err := repo.DeleteReport(ctx, id); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, err := repo.GetReport(ctx, id); !errors.Is(err, core.ErrReportNotFound) {
		t.Fatalf("err = %v, want ErrReportNotFound after delete", err)
	}
	if err := repo.DeleteReport(ctx, id); !errors.Is(err, core.ErrReportNotFound) {
		t.Fatalf("second delete err = %v, want ErrReportNotFound", err)
	}
}

func TestPendingSyncFlow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first, err := repo.InsertReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	second, err := repo.InsertReport(ctx, sampleReport())
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	pending, err := repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first || pending[1].ID != second {
		t.Fatalf("pending = %+v, want ids [%d %d] oldest first", pending, first, second)
	}

	if err := repo.MarkSynced(ctx, first); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, second); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, err = repo.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want empty", pending)
	}
}

func TestStatsAndBreakdown(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	jan := sampleReport()
	feb := sampleReport()
	feb.Month = "2024-02"
	feb.TotalIncome = core.Money{Cents: 50000000}
	feb.TotalExpense = core.Money{Cents: 20000000}

	for _, rep := range []core.Report{jan, feb} {
		if _, err := repo.InsertReport(ctx, rep); err != nil {
			t.Fatalf("InsertReport: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalReports != 2 {
		t.Errorf("TotalReports = %d", stats.TotalReports)
	}
	wantIncome := int64(150000000 + 50000000)
	wantExpense := int64(75000000 + 20000000)
	if stats.TotalIncome.Cents != wantIncome || stats.TotalExpense.Cents != wantExpense {
		t.Errorf("totals = %d / %d, want %d / %d",
			stats.TotalIncome.Cents, stats.TotalExpense.Cents, wantIncome, wantExpense)
	}
	if stats.Balance.Cents != wantIncome-wantExpense {
		t.Errorf("balance = %d", stats.Balance.Cents)
	}

	monthly, err := repo.MonthlyBreakdown(ctx, 12)
	if err != nil {
		t.Fatalf("MonthlyBreakdown: %v", err)
	}
	if len(monthly) != 2 || monthly[0].Month != "2024-02" || monthly[1].Month != "2024-01" {
		t.Errorf("monthly = %+v, want newest month first", monthly)
	}
	if monthly[0].Income.Cents != 50000000 {
		t.Errorf("feb income = %d", monthly[0].Income.Cents)
	}
}

func TestInsertAuditLog(t *testing.T) {
	repo := testRepo(t)

	err := repo.InsertAuditLog(context.Background(), AuditRecord{
		UserID:       7,
		Action:       "CREATE_REPORT",
		ResourceType: "report",
		ResourceID:   "1",
		Details:      map[string]any{"division": "Pendidikan"},
	})
	if err != nil {
		t.Fatalf("InsertAuditLog: %v", err)
	}

	var count int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM audit_logs`).Scan(&count); err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if count != 1 {
		t.Errorf("audit rows = %d, want 1", count)
	}
}
