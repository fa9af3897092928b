package web

import (
	"bytes"
	"io"
	"net/http"

	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/report"
)

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Job(), s.logger)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var in domain.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.service.UpdateJob(r.Context(), in), s.logger)
}

func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Inventory(), s.logger)
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	rs, err := s.service.Rates(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to load rates")
		return
	}
	writeJSON(w, http.StatusOK, rs, s.logger)
}

func (s *Server) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	var updates domain.RateInput
	if !decodeJSON(w, r, &updates) {
		return
	}
	rs, err := s.service.UpdateRates(r.Context(), updates.Schedule())
	if err != nil {
		s.writeServiceError(w, err, "failed to update rates")
		return
	}
	writeJSON(w, http.StatusOK, rs, s.logger)
}

func (s *Server) handleResetRates(w http.ResponseWriter, r *http.Request) {
	rs, err := s.service.ResetRates(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to reset rates")
		return
	}
	writeJSON(w, http.StatusOK, rs, s.logger)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Estimate(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to compute estimate")
		return
	}
	writeJSON(w, http.StatusOK, res, s.logger)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Report(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, snap, s.logger)
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	s.writeReport(w, r, "text/csv; charset=utf-8", "assessment.csv", report.WriteCSV)
}

func (s *Server) handleReportText(w http.ResponseWriter, r *http.Request) {
	s.writeReport(w, r, "text/plain; charset=utf-8", "quote.txt", report.WriteText)
}

// writeReport renders into a buffer first so a rendering failure can still
// produce a clean error response.
func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, contentType, suffix string, render func(w io.Writer, snap report.Snapshot) error) {
	snap, err := s.service.Report(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to build report")
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, snap); err != nil {
		s.writeServiceError(w, err, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(snap.Inventory.ClientName, suffix)+`"`)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write report failed", "error", err)
	}
}

func (s *Server) handleSaveQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.service.SaveQuote(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to save quote")
		return
	}
	writeJSON(w, http.StatusCreated, quote, s.logger)
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.service.ListQuotes(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to list quotes")
		return
	}
	if quotes == nil {
		quotes = []*domain.SavedQuote{}
	}
	writeJSON(w, http.StatusOK, quotes, s.logger)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuoteID(r)
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}
	quote, err := s.service.GetQuote(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "failed to get quote", "quote_id", id)
		return
	}
	if quote == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, quote, s.logger)
}

func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuoteID(r)
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}
	quote, err := s.service.GetQuote(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "failed to get quote", "quote_id", id)
		return
	}
	if quote == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.service.DeleteQuote(r.Context(), id); err != nil {
		s.writeServiceError(w, err, "failed to delete quote", "quote_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
