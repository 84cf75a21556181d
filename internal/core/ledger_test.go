package core

import (
	"errors"
	"testing"
)

func TestBuildLedgerEmpty(t *testing.T) {
	entries, err := BuildLedger(ReportDraft{})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(entries))
	}
}

func TestBuildLedgerDropRuleAndOrder(t *testing.T) {
	d := ReportDraft{
		IncomeLabels:   []string{"Iuran", "", "Donasi", ""},
		IncomeAmounts:  []string{"100000", "0", "50000", "25000"},
		ExpenseLabels:  []string{"Konsumsi", ""},
		ExpenseAmounts: []string{"30000", ""},
	}
	entries, err := BuildLedger(d)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// "" + 0 dropped, "" + 25000 kept, "" + missing dropped
	want := []LedgerEntry{
		{Kind: KindIncome, Label: "Iuran", Amount: Money{Cents: 10000000}},
		{Kind: KindIncome, Label: "Donasi", Amount: Money{Cents: 5000000}},
		{Kind: KindIncome, Label: "", Amount: Money{Cents: 2500000}},
		{Kind: KindExpense, Label: "Konsumsi", Amount: Money{Cents: 3000000}},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestBuildLedgerKeepsZeroAmountWithLabel(t *testing.T) {
	d := ReportDraft{
		ExpenseLabels:  []string{"Tidak terpakai"},
		ExpenseAmounts: []string{"0"},
	}
	entries, err := BuildLedger(d)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(entries) != 1 || entries[0].Label != "Tidak terpakai" {
		t.Fatalf("labeled zero-amount entry must be kept, got %+v", entries)
	}
}

func TestBuildLedgerMissingAmountSlot(t *testing.T) {
	d := ReportDraft{
		IncomeLabels:  []string{"Kas", "Sisa"},
		IncomeAmounts: []string{"1000"}, // second slot absent -> zero
	}
	entries, err := BuildLedger(d)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1].Amount.Cents != 0 {
		t.Fatalf("missing amount slot must count as zero, got %d", entries[1].Amount.Cents)
	}
}

func TestBuildLedgerRejectsNegative(t *testing.T) {
	d := ReportDraft{
		IncomeLabels:  []string{"Koreksi"},
		IncomeAmounts: []string{"-500"},
	}
	if _, err := BuildLedger(d); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestResolveTotalsExplicitWins(t *testing.T) {
	entries := []LedgerEntry{
		{Kind: KindIncome, Label: "a", Amount: Money{Cents: 100}},
		{Kind: KindExpense, Label: "b", Amount: Money{Cents: 40}},
	}
	d := ReportDraft{TotalIncome: "9", TotalExpense: ""}
	income, expense, err := ResolveTotals(d, entries)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if income.Cents != 900 {
		t.Fatalf("explicit income total must win, got %d", income.Cents)
	}
	if expense.Cents != 40 {
		t.Fatalf("absent expense total must fall back to ledger sum, got %d", expense.Cents)
	}
}

func TestResolveTotalsRejectsNegativeExplicit(t *testing.T) {
	_, _, err := ResolveTotals(ReportDraft{TotalIncome: "-1"}, nil)
	if !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}
