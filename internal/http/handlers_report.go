package http

import (
	"errors"
	"log/slog"
	"net/http"
)

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	draft, err := s.parseReportDraft(r)
	if err != nil {
		respondUploadError(w, r, err)
		return
	}

	rep, err := s.lifecycle.Create(r.Context(), actorID(r), draft)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateStats()
	respondJSON(w, http.StatusCreated, viewOf(rep))
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID laporan tidak valid")
		return
	}

	draft, err := s.parseReportDraft(r)
	if err != nil {
		respondUploadError(w, r, err)
		return
	}

	rep, err := s.lifecycle.Update(r.Context(), actorID(r), id, draft)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateStats()
	respondJSON(w, http.StatusOK, viewOf(rep))
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID laporan tidak valid")
		return
	}

	if err := s.lifecycle.Delete(r.Context(), actorID(r), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateStats()
	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID laporan tidak valid")
		return
	}

	rep, err := s.reader.GetReport(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(rep))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reader.ListReports(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List reports failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Gagal memuat daftar laporan")
		return
	}

	views := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, viewOf(rep))
	}
	respondJSON(w, http.StatusOK, views)
}

func respondUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUploadType):
		respondError(w, http.StatusUnsupportedMediaType, "Jenis lampiran tidak diizinkan")
	case errors.Is(err, ErrUploadTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "Ukuran lampiran melebihi 10 MB")
	default:
		slog.WarnContext(r.Context(), "Malformed submission form", "error", err)
		respondError(w, http.StatusBadRequest, "Format permintaan tidak valid")
	}
}
