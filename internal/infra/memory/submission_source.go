package memory

import (
	"context"

	"quiz-calibration/internal/domain"
)

// StaticSubmissionSource serves a fixed set of rows (useful for tests/demos).
type StaticSubmissionSource struct {
	rows     []domain.SubmissionRecord
	warnings []string
}

func NewStaticSubmissionSource(rows []domain.SubmissionRecord, warnings ...string) *StaticSubmissionSource {
	return &StaticSubmissionSource{rows: rows, warnings: warnings}
}

func (s *StaticSubmissionSource) LoadSubmissions(_ context.Context) ([]domain.SubmissionRecord, []string, error) {
	return s.rows, s.warnings, nil
}
