// Package render generates the PDF artifact for a report. Implementations
// must publish atomically: the destination path either holds a complete
// document or nothing, never a partial write. Intermediate files are the
// renderer's to clean up on success and failure alike.
package render

import (
	"context"
	"fmt"
	"os"
	"time"

	"lapor/internal/core"
)

// Document is the view-model handed to a renderer. It carries everything
// the artifact shows; renderers never touch the database.
type Document struct {
	Division     string
	MonthKey     string // canonical YYYY-MM
	MonthLabel   string // human form, e.g. "Januari 2024"
	Reporter     string
	WorkProgram  string
	Evaluation   string
	Plan         string
	Ledger       []core.LedgerEntry
	TotalIncome  core.Money
	TotalExpense core.Money
	GeneratedAt  time.Time
}

// DocumentFor assembles the view-model for a canonical report.
func DocumentFor(rep core.Report, now time.Time) Document {
	return Document{
		Division:     rep.Division,
		MonthKey:     rep.Month,
		MonthLabel:   core.FormatMonthID(rep.Month),
		Reporter:     rep.Reporter,
		WorkProgram:  rep.WorkProgram,
		Evaluation:   rep.Evaluation,
		Plan:         rep.Plan,
		Ledger:       rep.Ledger,
		TotalIncome:  rep.TotalIncome,
		TotalExpense: rep.TotalExpense,
		GeneratedAt:  now,
	}
}

// Renderer produces the document file at destPath.
type Renderer interface {
	Render(ctx context.Context, doc Document, destPath string) error
}

// publish runs write against a temporary sibling of destPath and renames
// the result into place, so a failed render never leaves a partial file
// at the destination.
func publish(destPath string, write func(tmpPath string) error) error {
	tmp := destPath + ".partial"
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, destPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
