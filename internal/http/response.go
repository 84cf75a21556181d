package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lapor/internal/core"
	"lapor/internal/services"
)

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Message: message})
}

// respondServiceError maps lifecycle errors onto HTTP statuses. Rejections
// are the caller's to fix; render and persistence failures are ours.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, "Field wajib belum diisi: "+verr.Field)
	case errors.Is(err, core.ErrMonthUnparseable):
		respondError(w, http.StatusUnprocessableEntity, "Format bulan tidak dikenali")
	case errors.Is(err, core.ErrFutureMonth):
		respondError(w, http.StatusUnprocessableEntity, "Bulan laporan tidak boleh melebihi bulan berjalan")
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrNegativeAmount):
		respondError(w, http.StatusUnprocessableEntity, "Nominal tidak valid")
	case errors.Is(err, core.ErrReportNotFound):
		respondError(w, http.StatusNotFound, "Laporan tidak ditemukan")
	default:
		var rerr *services.RenderError
		var perr *services.PersistenceError
		if errors.As(err, &rerr) {
			slog.ErrorContext(r.Context(), "Artifact rendering failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Gagal membuat dokumen PDF")
			return
		}
		if errors.As(err, &perr) {
			slog.ErrorContext(r.Context(), "Report persistence failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Gagal menyimpan laporan")
			return
		}
		slog.ErrorContext(r.Context(), "Unhandled service error", "error", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server")
	}
}

// reportView is the JSON shape of a report in API responses.
type reportView struct {
	ID           int64              `json:"id"`
	Division     string             `json:"divisi"`
	Month        string             `json:"bulan"`
	MonthLabel   string             `json:"bulan_label"`
	Reporter     string             `json:"nama_pelapor"`
	WorkProgram  string             `json:"program_kerja"`
	TotalIncome  int64              `json:"pemasukan"`
	TotalExpense int64              `json:"pengeluaran"`
	Evaluation   string             `json:"evaluasi,omitempty"`
	Plan         string             `json:"rencana,omitempty"`
	Ledger       []core.LedgerEntry `json:"rincian_keuangan,omitempty"`
	ArtifactURL  string             `json:"pdf_url"`
	Attachment   string             `json:"lampiran,omitempty"`
	CreatedAt    string             `json:"created_at"`
}

func viewOf(rep core.Report) reportView {
	v := reportView{
		ID:           rep.ID,
		Division:     rep.Division,
		Month:        rep.Month,
		MonthLabel:   core.FormatMonthID(rep.Month),
		Reporter:     rep.Reporter,
		WorkProgram:  rep.WorkProgram,
		TotalIncome:  rep.TotalIncome.Rupiah(),
		TotalExpense: rep.TotalExpense.Rupiah(),
		Evaluation:   rep.Evaluation,
		Plan:         rep.Plan,
		Ledger:       rep.Ledger,
		ArtifactURL:  "/files/reports/" + rep.Artifact.Filename,
		CreatedAt:    rep.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if rep.Attachment != nil {
		v.Attachment = rep.Attachment.Filename
	}
	return v
}
