package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"lapor/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the report store and audit sink backed by SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const reportColumns = `id, user_id, divisi, bulan, nama_pelapor, program_kerja,
	pemasukan_cents, pengeluaran_cents, evaluasi, rencana,
	attachment_filename, attachment_path, pdf_filename, pdf_path,
	financial_details, status, sync_state, created_at`

// InsertReport persists a new report row and returns its id.
func (r *SQLiteRepository) InsertReport(ctx context.Context, rep core.Report) (int64, error) {
	details, err := marshalLedger(rep.Ledger)
	if err != nil {
		return 0, fmt.Errorf("marshal ledger: %w", err)
	}

	var attFilename, attPath sql.NullString
	if rep.Attachment != nil {
		attFilename = sql.NullString{String: rep.Attachment.Filename, Valid: true}
		attPath = sql.NullString{String: rep.Attachment.Path, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO reports (
			user_id, divisi, bulan, nama_pelapor, program_kerja,
			pemasukan_cents, pengeluaran_cents, evaluasi, rencana,
			attachment_filename, attachment_path, pdf_filename, pdf_path,
			financial_details, status, sync_state
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.UserID, rep.Division, rep.Month, rep.Reporter, rep.WorkProgram,
		rep.TotalIncome.Cents, rep.TotalExpense.Cents, rep.Evaluation, rep.Plan,
		attFilename, attPath, rep.Artifact.Filename, rep.Artifact.Path,
		details, rep.Status, core.SyncPending,
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Report saved to SQLite",
		"report_id", id,
		"division", rep.Division,
		"month", rep.Month)

	return id, nil
}

// UpdateReport overwrites the mutable fields of an existing row. The sync
// state is reset to pending so the recap worker picks the change up again.
func (r *SQLiteRepository) UpdateReport(ctx context.Context, id int64, rep core.Report) error {
	details, err := marshalLedger(rep.Ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	var attFilename, attPath sql.NullString
	if rep.Attachment != nil {
		attFilename = sql.NullString{String: rep.Attachment.Filename, Valid: true}
		attPath = sql.NullString{String: rep.Attachment.Path, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `UPDATE reports SET
			divisi = ?, bulan = ?, nama_pelapor = ?, program_kerja = ?,
			pemasukan_cents = ?, pengeluaran_cents = ?, evaluasi = ?, rencana = ?,
			attachment_filename = ?, attachment_path = ?,
			pdf_filename = ?, pdf_path = ?, financial_details = ?,
			sync_state = ?
		WHERE id = ?`,
		rep.Division, rep.Month, rep.Reporter, rep.WorkProgram,
		rep.TotalIncome.Cents, rep.TotalExpense.Cents, rep.Evaluation, rep.Plan,
		attFilename, attPath, rep.Artifact.Filename, rep.Artifact.Path,
		details, core.SyncPending, id,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrReportNotFound
	}
	return nil
}

// GetReport fetches one report by id, returning core.ErrReportNotFound for
// absent rows.
func (r *SQLiteRepository) GetReport(ctx context.Context, id int64) (core.Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, core.ErrReportNotFound
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// DeleteReport removes a row, returning core.ErrReportNotFound when it was
// already gone.
func (r *SQLiteRepository) DeleteReport(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrReportNotFound
	}
	return nil
}

// ListReports returns all reports, newest first.
func (r *SQLiteRepository) ListReports(ctx context.Context) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []core.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// Stats aggregates totals across all reports for the dashboard.
type Stats struct {
	TotalReports int64
	TotalIncome  core.Money
	TotalExpense core.Money
	Balance      core.Money
}

// MonthTotals is one row of the monthly dashboard breakdown.
type MonthTotals struct {
	Month   string
	Income  core.Money
	Expense core.Money
}

func (r *SQLiteRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var income, expense sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			SUM(pemasukan_cents),
			SUM(pengeluaran_cents)
		FROM reports`).Scan(&s.TotalReports, &income, &expense)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	s.TotalIncome = core.Money{Cents: income.Int64}
	s.TotalExpense = core.Money{Cents: expense.Int64}
	s.Balance = core.Money{Cents: income.Int64 - expense.Int64}
	return s, nil
}

func (r *SQLiteRepository) MonthlyBreakdown(ctx context.Context, limit int) ([]MonthTotals, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT bulan,
			SUM(pemasukan_cents), SUM(pengeluaran_cents)
		FROM reports GROUP BY bulan ORDER BY bulan DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("monthly breakdown: %w", err)
	}
	defer rows.Close()

	var out []MonthTotals
	for rows.Next() {
		var mt MonthTotals
		var income, expense sql.NullInt64
		if err := rows.Scan(&mt.Month, &income, &expense); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		mt.Income = core.Money{Cents: income.Int64}
		mt.Expense = core.Money{Cents: expense.Int64}
		out = append(out, mt)
	}
	return out, rows.Err()
}

// ListPendingSync returns reports awaiting the recap mirror, oldest first.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE sync_state = ? ORDER BY id ASC LIMIT ?`,
		core.SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var reports []core.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE reports SET sync_state = ? WHERE id = ?`, core.SyncDone, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE reports SET sync_state = ? WHERE id = ?`, core.SyncError, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Report marked with sync error", "report_id", id)
	return nil
}

// AuditRecord is one row of the audit_logs table.
type AuditRecord struct {
	UserID       int64
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

// InsertAuditLog appends one audit row.
func (r *SQLiteRepository) InsertAuditLog(ctx context.Context, rec AuditRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, resource_type, resource_id, details)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.UserID, rec.Action, rec.ResourceType, rec.ResourceID, string(details)); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (core.Report, error) {
	var (
		rep                  core.Report
		income, expense      int64
		attFilename, attPath sql.NullString
		details              string
		createdAt            sql.NullTime
	)
	err := row.Scan(
		&rep.ID, &rep.UserID, &rep.Division, &rep.Month, &rep.Reporter, &rep.WorkProgram,
		&income, &expense, &rep.Evaluation, &rep.Plan,
		&attFilename, &attPath, &rep.Artifact.Filename, &rep.Artifact.Path,
		&details, &rep.Status, &rep.SyncState, &createdAt,
	)
	if err != nil {
		return core.Report{}, err
	}
	rep.TotalIncome = core.Money{Cents: income}
	rep.TotalExpense = core.Money{Cents: expense}
	if attFilename.Valid || attPath.Valid {
		rep.Attachment = &core.FileRef{Filename: attFilename.String, Path: attPath.String}
	}
	if createdAt.Valid {
		rep.CreatedAt = createdAt.Time
	}
	ledger, err := unmarshalLedger(details)
	if err != nil {
		return core.Report{}, fmt.Errorf("unmarshal ledger: %w", err)
	}
	rep.Ledger = ledger
	return rep, nil
}

func marshalLedger(entries []core.LedgerEntry) (string, error) {
	if entries == nil {
		entries = []core.LedgerEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalLedger(s string) ([]core.LedgerEntry, error) {
	if s == "" {
		return nil, nil
	}
	var entries []core.LedgerEntry
	if err := json.Unmarshal([]byte(s), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
