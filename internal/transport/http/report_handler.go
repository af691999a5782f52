package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-calibration/internal/app"
	"quiz-calibration/internal/domain"
)

// ReportHandler exposes the assembled analysis to rendering collaborators as
// plain JSON. Reports are snapshots of a batch run, so the API is pull-only.
type ReportHandler struct {
	report   domain.AnalysisReport
	provider app.ReportProvider
}

func NewReportHandler(report domain.AnalysisReport, provider app.ReportProvider) *ReportHandler {
	return &ReportHandler{report: report, provider: provider}
}

type errorPayload struct {
	Error string `json:"error"`
}

// Register wires the report routes into the mux.
func (h *ReportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /reports", h.serveFullReport)
	mux.HandleFunc("GET /reports/{respondent}", h.serveRespondentReport)
}

func (h *ReportHandler) serveFullReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.report)
}

func (h *ReportHandler) serveRespondentReport(w http.ResponseWriter, r *http.Request) {
	respondentID := r.PathValue("respondent")
	report, err := h.provider.GetReport(r.Context(), respondentID)
	if errors.Is(err, domain.ErrEmptyInput) {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "no submissions for respondent " + respondentID})
		return
	}
	if err != nil {
		log.Printf("report lookup failed for %s: %v", respondentID, err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: "report lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
