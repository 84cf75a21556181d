package http

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lapor/internal/core"
	"lapor/internal/storage"
)

// StatsSource provides the aggregates behind the dashboard.
type StatsSource interface {
	Stats(ctx context.Context) (storage.Stats, error)
	MonthlyBreakdown(ctx context.Context, limit int) ([]storage.MonthTotals, error)
}

// DashboardStats is the JSON shape of /api/dashboard/stats.
type DashboardStats struct {
	TotalReports int64        `json:"total_laporan"`
	TotalIncome  int64        `json:"total_pemasukan"`
	TotalExpense int64        `json:"total_pengeluaran"`
	Balance      int64        `json:"saldo"`
	Monthly      []monthStats `json:"per_bulan"`
}

type monthStats struct {
	Month      string `json:"bulan"`
	MonthLabel string `json:"bulan_label"`
	Income     int64  `json:"pemasukan"`
	Expense    int64  `json:"pengeluaran"`
}

const statsCacheKey = "dashboard"

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if cached, found := s.statsCache.Get(statsCacheKey); found {
		slog.DebugContext(r.Context(), "Dashboard stats cache hit")
		respondJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard stats failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	monthly, err := s.stats.MonthlyBreakdown(r.Context(), 6)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly breakdown failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Gagal memuat statistik bulanan")
		return
	}

	out := DashboardStats{
		TotalReports: stats.TotalReports,
		TotalIncome:  stats.TotalIncome.Rupiah(),
		TotalExpense: stats.TotalExpense.Rupiah(),
		Balance:      stats.Balance.Rupiah(),
		Monthly:      make([]monthStats, 0, len(monthly)),
	}
	for _, mt := range monthly {
		out.Monthly = append(out.Monthly, monthStats{
			Month:      mt.Month,
			MonthLabel: core.FormatMonthID(mt.Month),
			Income:     mt.Income.Rupiah(),
			Expense:    mt.Expense.Rupiah(),
		})
	}

	s.statsCache.Set(statsCacheKey, out)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) invalidateStats() {
	s.statsCache.Delete(statsCacheKey)
}

// handleExportCSV streams every report as a CSV download for the
// administration's offline bookkeeping.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reader.ListReports(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Gagal mengekspor laporan")
		return
	}

	filename := fmt.Sprintf("rekap_laporan_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"ID", "Bulan", "Divisi", "Nama Pelapor", "Program Kerja",
		"Pemasukan", "Pengeluaran", "Evaluasi", "Rencana", "Tanggal Input",
	})
	for _, rep := range reports {
		if err := cw.Write([]string{
			strconv.FormatInt(rep.ID, 10),
			core.FormatMonthID(rep.Month),
			rep.Division,
			rep.Reporter,
			rep.WorkProgram,
			strconv.FormatInt(rep.TotalIncome.Rupiah(), 10),
			strconv.FormatInt(rep.TotalExpense.Rupiah(), 10),
			rep.Evaluation,
			rep.Plan,
			rep.CreatedAt.Format("2006-01-02 15:04:05"),
		}); err != nil {
			slog.ErrorContext(r.Context(), "CSV row write failed", "error", err, "report_id", rep.ID)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV flush failed", "error", err)
	}
}
