package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lapor/internal/core"
	"lapor/internal/storage"
)

type fakeLifecycle struct {
	created core.ReportDraft
	report  core.Report
	err     error
	deleted []int64
}

func (f *fakeLifecycle) Create(_ context.Context, _ int64, draft core.ReportDraft) (core.Report, error) {
	f.created = draft
	if f.err != nil {
		return core.Report{}, f.err
	}
	return f.report, nil
}

func (f *fakeLifecycle) Update(_ context.Context, _ int64, id int64, draft core.ReportDraft) (core.Report, error) {
	f.created = draft
	if f.err != nil {
		return core.Report{}, f.err
	}
	rep := f.report
	rep.ID = id
	return rep, nil
}

func (f *fakeLifecycle) Delete(_ context.Context, _ int64, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeReader struct {
	reports []core.Report
	err     error
}

func (f *fakeReader) GetReport(_ context.Context, id int64) (core.Report, error) {
	if f.err != nil {
		return core.Report{}, f.err
	}
	for _, rep := range f.reports {
		if rep.ID == id {
			return rep, nil
		}
	}
	return core.Report{}, core.ErrReportNotFound
}

func (f *fakeReader) ListReports(_ context.Context) ([]core.Report, error) {
	return f.reports, f.err
}

type fakeStats struct {
	stats   storage.Stats
	monthly []storage.MonthTotals
	calls   int
}

func (f *fakeStats) Stats(context.Context) (storage.Stats, error) {
	f.calls++
	return f.stats, nil
}

func (f *fakeStats) MonthlyBreakdown(context.Context, int) ([]storage.MonthTotals, error) {
	return f.monthly, nil
}

func sampleReport() core.Report {
	return core.Report{
		ID:          1,
		Division:    "Pendidikan",
		Month:       "2024-01",
		Reporter:    "Ahmad",
		WorkProgram: "Kajian rutin",
		TotalIncome: core.Money{Cents: 150000000},
		Artifact:    core.FileRef{Filename: "LPJ_Pendidikan_2024-01_1.pdf", Path: "/data/reports/LPJ_Pendidikan_2024-01_1.pdf"},
		CreatedAt:   time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, lc *fakeLifecycle, rd *fakeReader, st *fakeStats) *Server {
	t.Helper()
	return NewServer("127.0.0.1:0", lc, rd, st, NewUploadStore(t.TempDir()), t.TempDir())
}

func postForm(srv *Server, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func submissionForm() url.Values {
	return url.Values{
		"nama_pelapor":  {"Ahmad"},
		"divisi":        {"Pendidikan"},
		"bulan":         {"Januari 2024"},
		"program_kerja": {"Kajian rutin"},
	}
}

func TestCreateReportEndpoint(t *testing.T) {
	lc := &fakeLifecycle{report: sampleReport()}
	srv := newTestServer(t, lc, &fakeReader{}, &fakeStats{})

	rec := postForm(srv, "/api/reports", submissionForm())

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if lc.created.Reporter != "Ahmad" || lc.created.Month != "Januari 2024" {
		t.Errorf("draft not passed through: %+v", lc.created)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID     int64  `json:"id"`
			PDFURL string `json:"pdf_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data.ID != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Data.PDFURL != "/files/reports/LPJ_Pendidikan_2024-01_1.pdf" {
		t.Errorf("pdf_url = %q", resp.Data.PDFURL)
	}
}

func TestCreateReportValidationError(t *testing.T) {
	lc := &fakeLifecycle{err: &core.ValidationError{Field: "bulan", Reason: "required"}}
	srv := newTestServer(t, lc, &fakeReader{}, &fakeStats{})

	rec := postForm(srv, "/api/reports", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateReportFutureMonth(t *testing.T) {
	lc := &fakeLifecycle{err: core.ErrFutureMonth}
	srv := newTestServer(t, lc, &fakeReader{}, &fakeStats{})

	rec := postForm(srv, "/api/reports", submissionForm())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestGetReportNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeLifecycle{}, &fakeReader{}, &fakeStats{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/99", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetReportBadID(t *testing.T) {
	srv := newTestServer(t, &fakeLifecycle{}, &fakeReader{}, &fakeStats{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/abc", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteReportEndpoint(t *testing.T) {
	lc := &fakeLifecycle{}
	srv := newTestServer(t, lc, &fakeReader{}, &fakeStats{})

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/3", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(lc.deleted) != 1 || lc.deleted[0] != 3 {
		t.Errorf("deleted = %v, want [3]", lc.deleted)
	}
}

func TestListReportsEndpoint(t *testing.T) {
	rd := &fakeReader{reports: []core.Report{sampleReport()}}
	srv := newTestServer(t, &fakeLifecycle{}, rd, &fakeStats{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Januari 2024") {
		t.Errorf("expected localized month label in body: %s", rec.Body.String())
	}
}

func TestDashboardStatsCached(t *testing.T) {
	st := &fakeStats{
		stats: storage.Stats{TotalReports: 2, TotalIncome: core.Money{Cents: 500000}},
		monthly: []storage.MonthTotals{
			{Month: "2024-01", Income: core.Money{Cents: 500000}},
		},
	}
	srv := newTestServer(t, &fakeLifecycle{}, &fakeReader{}, st)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	if st.calls != 1 {
		t.Errorf("stats queries = %d, want 1 (cached afterwards)", st.calls)
	}
}

func TestExportCSV(t *testing.T) {
	rd := &fakeReader{reports: []core.Report{sampleReport()}}
	srv := newTestServer(t, &fakeLifecycle{}, rd, &fakeStats{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/export", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Nama Pelapor") || !strings.Contains(body, "Pendidikan") {
		t.Errorf("unexpected CSV body: %s", body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeLifecycle{}, &fakeReader{}, &fakeStats{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
