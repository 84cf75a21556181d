package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"lapor/internal/core"
)

// GotenbergRenderer renders the report through a Gotenberg service:
// the document becomes HTML, Chromium converts it, and the PDF bytes are
// published atomically on disk.
type GotenbergRenderer struct {
	baseURL    string
	httpClient *http.Client
}

func NewGotenbergRenderer(baseURL string) *GotenbergRenderer {
	return &GotenbergRenderer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (g *GotenbergRenderer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", g.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

func (g *GotenbergRenderer) Render(ctx context.Context, doc Document, destPath string) error {
	html, err := reportHTML(doc)
	if err != nil {
		return fmt.Errorf("build report html: %w", err)
	}

	pdf, err := g.convertHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("gotenberg render: %w", err)
	}

	return publish(destPath, func(tmpPath string) error {
		return os.WriteFile(tmpPath, pdf, 0644)
	})
}

func (g *GotenbergRenderer) convertHTML(ctx context.Context, html string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewBufferString(html)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/forms/chromium/convert/html", g.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<style>
body { font-family: serif; margin: 2cm; }
h1, h2 { text-align: center; }
table { width: 100%; border-collapse: collapse; margin-bottom: 1em; }
td, th { border: 1px solid #333; padding: 4px 8px; }
td.amount { text-align: right; }
.total { font-weight: bold; }
.footer { text-align: right; font-size: 9pt; margin-top: 2em; }
</style>
</head>
<body>
<h1>LAPORAN PERTANGGUNGJAWABAN</h1>
<h2>{{.Division}} &mdash; {{.MonthLabel}}</h2>
<p>Pelapor: {{.Reporter}}</p>

<h3>Program Kerja</h3>
<p>{{.WorkProgram}}</p>

<h3>Pemasukan</h3>
<table>
{{range .IncomeRows}}<tr><td>{{.Label}}</td><td class="amount">{{.Amount}}</td></tr>
{{end}}<tr class="total"><td>Total Pemasukan</td><td class="amount">{{.TotalIncome}}</td></tr>
</table>

<h3>Pengeluaran</h3>
<table>
{{range .ExpenseRows}}<tr><td>{{.Label}}</td><td class="amount">{{.Amount}}</td></tr>
{{end}}<tr class="total"><td>Total Pengeluaran</td><td class="amount">{{.TotalExpense}}</td></tr>
</table>

<h3>Evaluasi</h3>
<p>{{.Evaluation}}</p>

<h3>Rencana Bulan Depan</h3>
<p>{{.Plan}}</p>

<div class="footer">Dibuat: {{.GeneratedAt}}</div>
</body>
</html>`))

type htmlRow struct {
	Label  string
	Amount string
}

func htmlLedgerRows(entries []core.LedgerEntry, kind core.LedgerKind, emptyText string) []htmlRow {
	var rows []htmlRow
	for _, e := range entries {
		if e.Kind != kind {
			continue
		}
		label := e.Label
		if label == "" {
			label = "Tanpa Keterangan"
		}
		rows = append(rows, htmlRow{Label: label, Amount: e.Amount.FormatRupiah()})
	}
	if len(rows) == 0 {
		rows = []htmlRow{{Label: emptyText, Amount: "Rp 0"}}
	}
	return rows
}

func reportHTML(doc Document) (string, error) {
	data := struct {
		Division     string
		MonthLabel   string
		Reporter     string
		WorkProgram  string
		Evaluation   string
		Plan         string
		IncomeRows   []htmlRow
		ExpenseRows  []htmlRow
		TotalIncome  string
		TotalExpense string
		GeneratedAt  string
	}{
		Division:     doc.Division,
		MonthLabel:   doc.MonthLabel,
		Reporter:     doc.Reporter,
		WorkProgram:  doc.WorkProgram,
		Evaluation:   doc.Evaluation,
		Plan:         doc.Plan,
		IncomeRows:   htmlLedgerRows(doc.Ledger, core.KindIncome, "Tidak ada data pemasukan"),
		ExpenseRows:  htmlLedgerRows(doc.Ledger, core.KindExpense, "Tidak ada data pengeluaran"),
		TotalIncome:  doc.TotalIncome.FormatRupiah(),
		TotalExpense: doc.TotalExpense.FormatRupiah(),
		GeneratedAt:  doc.GeneratedAt.Format("02-01-2006 15:04"),
	}
	var b bytes.Buffer
	if err := reportTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
