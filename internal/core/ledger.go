package core

import (
	"fmt"
	"strings"
)

// BuildLedger reshapes the parallel label/amount arrays of a draft into a
// single ordered ledger. Income entries come first, then expenses, each
// group in submission order. An entry is dropped when its label is blank
// and its amount is not positive; everything else is kept, including
// zero-amount entries that carry a label. A missing amount slot counts
// as zero. Negative or malformed amounts abort with an error.
func BuildLedger(d ReportDraft) ([]LedgerEntry, error) {
	entries := make([]LedgerEntry, 0, len(d.IncomeLabels)+len(d.ExpenseLabels))

	appendKind := func(kind LedgerKind, labels, amounts []string) error {
		for i, label := range labels {
			raw := ""
			if i < len(amounts) {
				raw = amounts[i]
			}
			cents, err := ParseAmountToCents(raw)
			if err != nil {
				return fmt.Errorf("%s entry %d: %w", kind, i+1, err)
			}
			if strings.TrimSpace(label) == "" && cents <= 0 {
				continue
			}
			entries = append(entries, LedgerEntry{
				Kind:   kind,
				Label:  label,
				Amount: Money{Cents: cents},
			})
		}
		return nil
	}

	if err := appendKind(KindIncome, d.IncomeLabels, d.IncomeAmounts); err != nil {
		return nil, err
	}
	if err := appendKind(KindExpense, d.ExpenseLabels, d.ExpenseAmounts); err != nil {
		return nil, err
	}
	return entries, nil
}

// LedgerSum totals the entries of one kind.
func LedgerSum(entries []LedgerEntry, kind LedgerKind) Money {
	var total int64
	for _, e := range entries {
		if e.Kind == kind {
			total += e.Amount.Cents
		}
	}
	return Money{Cents: total}
}

// ResolveTotals settles the income and expense totals for a draft.
// Policy: an explicit top-level total always wins; the ledger sum is the
// fallback only when the explicit field is absent. This matches the
// create-path behavior of the system this replaces and is applied to both
// paths so the two can no longer disagree.
func ResolveTotals(d ReportDraft, entries []LedgerEntry) (income, expense Money, err error) {
	resolve := func(explicit string, kind LedgerKind) (Money, error) {
		if strings.TrimSpace(explicit) == "" {
			return LedgerSum(entries, kind), nil
		}
		cents, err := ParseAmountToCents(explicit)
		if err != nil {
			return Money{}, fmt.Errorf("total %s: %w", kind, err)
		}
		return Money{Cents: cents}, nil
	}

	if income, err = resolve(d.TotalIncome, KindIncome); err != nil {
		return
	}
	expense, err = resolve(d.TotalExpense, KindExpense)
	return
}
