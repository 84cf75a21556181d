package http

import (
	"net/http"
	"strconv"
	"strings"

	"lapor/internal/core"
)

// Form field names match the submission form, which is in Indonesian.
const (
	fieldReporter      = "nama_pelapor"
	fieldDivision      = "divisi"
	fieldDormName      = "nama_asrama"
	fieldMonth         = "bulan"
	fieldWorkProgram   = "program_kerja"
	fieldEvaluation    = "evaluasi"
	fieldPlan          = "rencana"
	fieldIncomeLabel   = "pemasukan_list"
	fieldIncomeAmount  = "pemasukan_nominal"
	fieldExpenseLabel  = "pengeluaran_list"
	fieldExpenseAmount = "pengeluaran_nominal"
	fieldTotalIncome   = "pemasukan"
	fieldTotalExpense  = "pengeluaran"
	fieldAttachment    = "lampiran"
)

// parseReportDraft reads a submission form into a draft. Multipart forms
// may carry an attachment, which is stored before the draft is returned.
func (s *Server) parseReportDraft(r *http.Request) (core.ReportDraft, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return core.ReportDraft{}, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return core.ReportDraft{}, err
		}
	}

	draft := core.ReportDraft{
		Reporter:       sanitizeInput(r.Form.Get(fieldReporter)),
		Division:       sanitizeInput(r.Form.Get(fieldDivision)),
		DormName:       sanitizeInput(r.Form.Get(fieldDormName)),
		Month:          sanitizeInput(r.Form.Get(fieldMonth)),
		WorkProgram:    sanitizeInput(r.Form.Get(fieldWorkProgram)),
		Evaluation:     sanitizeInput(r.Form.Get(fieldEvaluation)),
		Plan:           sanitizeInput(r.Form.Get(fieldPlan)),
		IncomeLabels:   sanitizeAll(formValues(r, fieldIncomeLabel)),
		IncomeAmounts:  sanitizeAll(formValues(r, fieldIncomeAmount)),
		ExpenseLabels:  sanitizeAll(formValues(r, fieldExpenseLabel)),
		ExpenseAmounts: sanitizeAll(formValues(r, fieldExpenseAmount)),
		TotalIncome:    sanitizeInput(r.Form.Get(fieldTotalIncome)),
		TotalExpense:   sanitizeInput(r.Form.Get(fieldTotalExpense)),
	}

	if r.MultipartForm != nil && s.uploads != nil {
		ref, err := s.uploads.StoreAttachment(r, fieldAttachment)
		if err != nil {
			return core.ReportDraft{}, err
		}
		draft.Attachment = ref
	}

	return draft, nil
}

// formValues returns every value for key, accepting both "key" and
// "key[]" spellings.
func formValues(r *http.Request, key string) []string {
	if vs, ok := r.Form[key]; ok && len(vs) > 0 {
		return vs
	}
	return r.Form[key+"[]"]
}

// actorID reads the acting user from the X-User-ID header set by the
// reverse proxy. Zero means anonymous.
func actorID(r *http.Request) int64 {
	v := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// pathID extracts the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeAll(vs []string) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = sanitizeInput(v)
	}
	return out
}
