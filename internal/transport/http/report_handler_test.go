package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-calibration/internal/domain"
)

type staticProvider struct {
	reports map[string]domain.RespondentReport
}

func (p *staticProvider) GetReport(_ context.Context, respondentID string) (domain.RespondentReport, error) {
	if report, ok := p.reports[respondentID]; ok {
		return report, nil
	}
	return domain.RespondentReport{RespondentID: respondentID}, domain.ErrEmptyInput
}

func newTestServer() *httptest.Server {
	full := domain.AnalysisReport{
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Respondents: []domain.RespondentReport{{RespondentID: "alice", BrierScore: 0.2}},
		References:  []domain.RespondentReport{{RespondentID: "perfect"}},
	}
	provider := &staticProvider{reports: map[string]domain.RespondentReport{
		"alice": {RespondentID: "alice", BrierScore: 0.2},
	}}

	mux := http.NewServeMux()
	NewReportHandler(full, provider).Register(mux)
	return httptest.NewServer(mux)
}

func TestServeFullReport(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/reports")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var report domain.AnalysisReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Respondents) != 1 || report.Respondents[0].RespondentID != "alice" {
		t.Fatalf("unexpected report body: %+v", report)
	}
}

func TestServeRespondentReport(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/reports/alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var report domain.RespondentReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.BrierScore != 0.2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestServeUnknownRespondent(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/reports/ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
