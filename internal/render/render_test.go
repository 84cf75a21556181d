package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lapor/internal/core"
)

func sampleDocument() Document {
	return Document{
		Division:    "Divisi Acara",
		MonthKey:    "2024-01",
		MonthLabel:  "Januari 2024",
		Reporter:    "Budi",
		WorkProgram: "Kajian bulanan",
		Evaluation:  "Berjalan lancar",
		Plan:        "Lanjutkan program",
		Ledger: []core.LedgerEntry{
			{Kind: core.KindIncome, Label: "Iuran", Amount: core.Money{Cents: 10000000}},
			{Kind: core.KindExpense, Label: "Konsumsi", Amount: core.Money{Cents: 3000000}},
		},
		TotalIncome:  core.Money{Cents: 10000000},
		TotalExpense: core.Money{Cents: 3000000},
		GeneratedAt:  time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestEscapeTypst(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a#b", `a\#b`},
		{"x_y", `x\_y`},
		{"[bracket]", `\[bracket\]`},
		{"a\nb", `a \ b`},
		{`back\slash`, `back\\slash`},
		{"", ""},
	}
	for i, tc := range cases {
		if got := escapeTypst(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestTypstSourceContainsReport(t *testing.T) {
	src := typstSource(sampleDocument())

	for _, want := range []string{
		"LAPORAN PERTANGGUNGJAWABAN",
		"Divisi Acara",
		"Januari 2024",
		"Budi",
		"Iuran",
		"Konsumsi",
		"Rp 100.000",
		"Rp 30.000",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("typst source missing %q:\n%s", want, src)
		}
	}
}

func TestTypstSourceEmptyLedger(t *testing.T) {
	doc := sampleDocument()
	doc.Ledger = nil
	src := typstSource(doc)
	if !strings.Contains(src, "Tidak ada data pemasukan") {
		t.Fatal("empty income section must show the placeholder row")
	}
	if !strings.Contains(src, "Tidak ada data pengeluaran") {
		t.Fatal("empty expense section must show the placeholder row")
	}
}

func TestTypstSourceEscapesUserText(t *testing.T) {
	doc := sampleDocument()
	doc.WorkProgram = "pakai #import jahat"
	src := typstSource(doc)
	if strings.Contains(src, "pakai #import") {
		t.Fatal("user text must not carry raw typst directives")
	}
	if !strings.Contains(src, `pakai \#import`) {
		t.Fatal("hash must be escaped, not dropped")
	}
}

func TestReportHTMLBlankLabelFallback(t *testing.T) {
	doc := sampleDocument()
	doc.Ledger = []core.LedgerEntry{
		{Kind: core.KindIncome, Label: "", Amount: core.Money{Cents: 500}},
	}
	html, err := reportHTML(doc)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !strings.Contains(html, "Tanpa Keterangan") {
		t.Fatal("blank label must fall back to Tanpa Keterangan")
	}
}

func TestGotenbergRenderPublishesAtomically(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pdf)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "report.pdf")
	r := NewGotenbergRenderer(srv.URL)
	if err := r.Render(context.Background(), sampleDocument(), dest); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("artifact must exist at destination: %v", err)
	}
	if string(got) != string(pdf) {
		t.Fatalf("artifact content mismatch")
	}
	if _, err := os.Stat(dest + ".partial"); !os.IsNotExist(err) {
		t.Fatal("temporary file must be gone after publish")
	}
}

func TestGotenbergRenderFailureLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "report.pdf")
	r := NewGotenbergRenderer(srv.URL)
	if err := r.Render(context.Background(), sampleDocument(), dest); err == nil {
		t.Fatal("expected render failure")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("no file may exist at destination after a failed render")
	}
	if _, err := os.Stat(dest + ".partial"); !os.IsNotExist(err) {
		t.Fatal("no partial file may remain after a failed render")
	}
}
