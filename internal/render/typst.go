package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"lapor/internal/core"
)

// TypstRenderer compiles the report to PDF with the typst CLI. The .typ
// source is written next to the destination, compiled to a temporary file,
// published by rename, and removed again on every path.
type TypstRenderer struct {
	Bin  string
	Root string
}

func NewTypstRenderer(bin, root string) *TypstRenderer {
	return &TypstRenderer{Bin: bin, Root: root}
}

func (t *TypstRenderer) Render(ctx context.Context, doc Document, destPath string) error {
	typPath := strings.TrimSuffix(destPath, ".pdf") + ".typ"

	if err := os.WriteFile(typPath, []byte(typstSource(doc)), 0644); err != nil {
		return fmt.Errorf("write typst source: %w", err)
	}
	defer func() {
		if err := os.Remove(typPath); err != nil && !os.IsNotExist(err) {
			slog.WarnContext(ctx, "Failed to remove typst source", "path", typPath, "error", err)
		}
	}()

	return publish(destPath, func(tmpPath string) error {
		cmd := exec.CommandContext(ctx, t.Bin, "compile", "--root", t.Root, typPath, tmpPath)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("typst compile: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil
	})
}

// escapeTypst strips characters that would break out of typst markup.
func escapeTypst(s string) string {
	if s == "" {
		return ""
	}
	r := strings.NewReplacer(
		`\`, `\\`,
		`$`, `\$`,
		`#`, `\#`,
		`_`, `\_`,
		`&`, `\&`,
		`{`, `\{`,
		`}`, `\}`,
		`[`, `\[`,
		`]`, `\]`,
		"\n", " \\ ",
	)
	return r.Replace(s)
}

func typstLedgerRows(entries []core.LedgerEntry, kind core.LedgerKind, emptyText string) string {
	var rows []string
	for _, e := range entries {
		if e.Kind != kind {
			continue
		}
		label := e.Label
		if strings.TrimSpace(label) == "" {
			label = "Tanpa Keterangan"
		}
		rows = append(rows,
			fmt.Sprintf("[%s]", escapeTypst(label)),
			fmt.Sprintf("[%s]", e.Amount.FormatRupiah()),
		)
	}
	if len(rows) == 0 {
		rows = []string{fmt.Sprintf("[%s]", emptyText), "[Rp 0]"}
	}
	return strings.Join(rows, ", ")
}

func typstSource(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "#set page(paper: \"a4\", margin: 2cm)\n")
	fmt.Fprintf(&b, "#set text(font: \"New Computer Modern\", size: 11pt)\n\n")

	fmt.Fprintf(&b, "#align(center)[#text(size: 14pt, weight: \"bold\")[LAPORAN PERTANGGUNGJAWABAN]]\n")
	fmt.Fprintf(&b, "#align(center)[#text(size: 12pt)[%s --- %s]]\n\n",
		escapeTypst(doc.Division), escapeTypst(doc.MonthLabel))
	fmt.Fprintf(&b, "Pelapor: %s\n\n", escapeTypst(doc.Reporter))

	fmt.Fprintf(&b, "== Program Kerja\n%s\n\n", escapeTypst(doc.WorkProgram))

	fmt.Fprintf(&b, "== Laporan Keuangan\n")
	fmt.Fprintf(&b, "=== Pemasukan\n")
	fmt.Fprintf(&b, "#table(columns: (1fr, auto), %s)\n",
		typstLedgerRows(doc.Ledger, core.KindIncome, "Tidak ada data pemasukan"))
	fmt.Fprintf(&b, "Total Pemasukan: *%s*\n\n", doc.TotalIncome.FormatRupiah())

	fmt.Fprintf(&b, "=== Pengeluaran\n")
	fmt.Fprintf(&b, "#table(columns: (1fr, auto), %s)\n",
		typstLedgerRows(doc.Ledger, core.KindExpense, "Tidak ada data pengeluaran"))
	fmt.Fprintf(&b, "Total Pengeluaran: *%s*\n\n", doc.TotalExpense.FormatRupiah())

	fmt.Fprintf(&b, "== Evaluasi\n%s\n\n", escapeTypst(doc.Evaluation))
	fmt.Fprintf(&b, "== Rencana Bulan Depan\n%s\n\n", escapeTypst(doc.Plan))

	fmt.Fprintf(&b, "#align(right)[#text(size: 9pt)[Dibuat: %s]]\n",
		doc.GeneratedAt.Format("02-01-2006 15:04"))

	return b.String()
}
