package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Report lifecycle status values.
const (
	StatusSubmitted = "submitted"
)

// DivisionDorm is the generic division value that gets replaced by the
// specific dorm name when the draft supplies one.
const DivisionDorm = "Ko'or Asrama"

type (
	// FileRef points at a stored file (generated PDF or uploaded attachment).
	FileRef struct {
		Filename string
		Path     string
	}

	// LedgerKind tags a ledger entry as income or expense.
	LedgerKind string

	// LedgerEntry is one normalized financial line item.
	LedgerEntry struct {
		Kind   LedgerKind `json:"kind"`
		Label  string     `json:"label"`
		Amount Money      `json:"amount_cents"`
	}

	// ReportDraft carries the raw fields of one submission. It exists only
	// for the duration of a single create or update call and is never
	// persisted as-is.
	ReportDraft struct {
		Reporter    string
		Division    string
		DormName    string // replaces Division when Division == DivisionDorm
		Month       string // free-form, normalized by NormalizeMonth
		WorkProgram string
		Evaluation  string
		Plan        string

		IncomeLabels   []string
		IncomeAmounts  []string
		ExpenseLabels  []string
		ExpenseAmounts []string

		// Optional explicit totals. When present they win over ledger sums.
		TotalIncome  string
		TotalExpense string

		Attachment *FileRef // already stored by the upload layer, may be nil
	}

	// Report is the persisted entity.
	Report struct {
		ID           int64
		UserID       int64
		Division     string
		Month        string // canonical YYYY-MM key
		Reporter     string
		WorkProgram  string
		TotalIncome  Money
		TotalExpense Money
		Evaluation   string
		Plan         string
		Ledger       []LedgerEntry
		Attachment   *FileRef
		Artifact     FileRef
		Status       string
		SyncState    string
		CreatedAt    time.Time
	}
)

const (
	KindIncome  LedgerKind = "income"
	KindExpense LedgerKind = "expense"
)

// Recap sync states, mirrored from the reports table.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

var (
	ErrReportNotFound   = errors.New("report not found")
	ErrMonthUnparseable = errors.New("month format not recognized")
	ErrFutureMonth      = errors.New("report month is in the future")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("negative amount")
)

// ValidationError reports a missing or malformed required draft field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// IsUserError reports whether err should be surfaced to the submitter
// as correctable input, as opposed to a system failure.
func IsUserError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrMonthUnparseable) ||
		errors.Is(err, ErrFutureMonth) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNegativeAmount)
}

// Validate checks that the required submission fields are present.
// Downstream components may assume presence after this passes.
func (d ReportDraft) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"reporter", d.Reporter},
		{"division", d.Division},
		{"month", d.Month},
		{"work_program", d.WorkProgram},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	return nil
}

// ResolvedDivision applies the dorm override: the generic coordinator
// division is replaced by the dorm name when one was supplied.
func (d ReportDraft) ResolvedDivision() string {
	if d.Division == DivisionDorm && strings.TrimSpace(d.DormName) != "" {
		return d.DormName
	}
	return d.Division
}

// HasFinancials reports whether the draft carries any financial input,
// ledger lines or explicit totals. An update draft without financial
// input keeps the stored ledger and totals.
func (d ReportDraft) HasFinancials() bool {
	return len(d.IncomeLabels) > 0 || len(d.IncomeAmounts) > 0 ||
		len(d.ExpenseLabels) > 0 || len(d.ExpenseAmounts) > 0 ||
		strings.TrimSpace(d.TotalIncome) != "" ||
		strings.TrimSpace(d.TotalExpense) != ""
}

// MergeInto overlays the draft on top of an existing report, keeping old
// values for fields the draft leaves empty. Financial fields are raw
// strings on the draft, so the update path carries those over on the
// normalized report instead. Used by the update path.
func (d ReportDraft) MergeInto(old Report) ReportDraft {
	merged := d
	if strings.TrimSpace(merged.Reporter) == "" {
		merged.Reporter = old.Reporter
	}
	if strings.TrimSpace(merged.Division) == "" {
		merged.Division = old.Division
	}
	if strings.TrimSpace(merged.Month) == "" {
		merged.Month = old.Month
	}
	if strings.TrimSpace(merged.WorkProgram) == "" {
		merged.WorkProgram = old.WorkProgram
	}
	if strings.TrimSpace(merged.Evaluation) == "" {
		merged.Evaluation = old.Evaluation
	}
	if strings.TrimSpace(merged.Plan) == "" {
		merged.Plan = old.Plan
	}
	return merged
}
