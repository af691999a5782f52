package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"quiz-calibration/internal/domain"
)

// SubmissionSource abstracts where raw submission rows come from (CSV files,
// Postgres, Redis, in-memory fixtures). Row-level decode failures are
// returned as warnings, never as a load error.
type SubmissionSource interface {
	LoadSubmissions(ctx context.Context) ([]domain.SubmissionRecord, []string, error)
}

// ReportProvider serves per-respondent reports; caches wrap it.
type ReportProvider interface {
	GetReport(ctx context.Context, respondentID string) (domain.RespondentReport, error)
}

// Params are the analysis knobs. Zero values fall back to defaults.
type Params struct {
	Bins                int   // confidence bins, default 4
	Options             int   // option set size, default 4
	ReferenceSampleSize int   // answers per reference agent, default 2000
	GuesserRuns         int   // guesser instances to show sampling variance, default 3
	Seed                int64 // 0 = time-seeded
}

func (p Params) withDefaults() Params {
	if p.Bins == 0 {
		p.Bins = 4
	}
	if p.Options == 0 {
		p.Options = 4
	}
	if p.ReferenceSampleSize == 0 {
		p.ReferenceSampleSize = 2000
	}
	if p.GuesserRuns == 0 {
		p.GuesserRuns = 3
	}
	return p
}

// Validate rejects unusable knobs before any processing starts.
func (p Params) Validate() error {
	if p.Bins < 1 {
		return fmt.Errorf("%w: bins must be >= 1, got %d", domain.ErrInvalidConfiguration, p.Bins)
	}
	if p.Options < 2 {
		return fmt.Errorf("%w: options must be >= 2, got %d", domain.ErrInvalidConfiguration, p.Options)
	}
	if p.ReferenceSampleSize < 0 {
		return fmt.Errorf("%w: reference_sample_size must be >= 0, got %d", domain.ErrInvalidConfiguration, p.ReferenceSampleSize)
	}
	return nil
}

// MultiSource merges several sources; they load concurrently but rows and
// warnings keep configuration order.
type MultiSource []SubmissionSource

func (m MultiSource) LoadSubmissions(ctx context.Context) ([]domain.SubmissionRecord, []string, error) {
	rows := make([][]domain.SubmissionRecord, len(m))
	warnings := make([][]string, len(m))

	g, ctx := errgroup.WithContext(ctx)
	for i, source := range m {
		i, source := i, source
		g.Go(func() error {
			r, w, err := source.LoadSubmissions(ctx)
			if err != nil {
				return err
			}
			rows[i], warnings[i] = r, w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var allRows []domain.SubmissionRecord
	var allWarnings []string
	for i := range m {
		allRows = append(allRows, rows[i]...)
		allWarnings = append(allWarnings, warnings[i]...)
	}
	return allRows, allWarnings, nil
}

// AnalysisService runs the calibration pipeline over a submission source.
type AnalysisService struct {
	source SubmissionSource
	params Params
	rnd    *rand.Rand
	now    func() time.Time
}

func NewAnalysisService(source SubmissionSource, params Params) (*AnalysisService, error) {
	return NewAnalysisServiceWithClock(source, params, time.Now)
}

// NewAnalysisServiceWithClock is test-only for deterministic timestamps.
func NewAnalysisServiceWithClock(source SubmissionSource, params Params, now func() time.Time) (*AnalysisService, error) {
	params = params.withDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	seed := params.Seed
	if seed == 0 {
		seed = now().UnixNano()
	}
	return &AnalysisService{
		source: source,
		params: params,
		rnd:    rand.New(rand.NewSource(seed)),
		now:    now,
	}, nil
}

// Snapshot loads all rows once and normalizes them to the latest submission
// per (respondent, quiz). The returned dataset answers report lookups
// without further I/O.
func (s *AnalysisService) Snapshot(ctx context.Context) (*Dataset, error) {
	rows, warnings, err := s.source.LoadSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	return &Dataset{
		latest:   NormalizeSubmissions(rows),
		warnings: warnings,
		params:   s.params,
	}, nil
}

// References generates one perfect agent and params.GuesserRuns guesser
// agents, each scored and binned like a real respondent.
func (s *AnalysisService) References() []domain.RespondentReport {
	p := s.params
	reports := make([]domain.RespondentReport, 0, 1+p.GuesserRuns)

	perfect := GenerateReference(domain.ReferencePerfect, p.ReferenceSampleSize, p.Bins, p.Options, s.rnd)
	reports = append(reports, referenceReport("perfect", perfect, p.Bins))

	for i := 1; i <= p.GuesserRuns; i++ {
		guesses := GenerateReference(domain.ReferenceGuesser, p.ReferenceSampleSize, p.Bins, p.Options, s.rnd)
		reports = append(reports, referenceReport(fmt.Sprintf("guesser-%d", i), guesses, p.Bins))
	}
	return reports
}

// Analyze is the batch entry point: one report per respondent plus the
// reference curves and any loader warnings.
func (s *AnalysisService) Analyze(ctx context.Context) (domain.AnalysisReport, error) {
	dataset, err := s.Snapshot(ctx)
	if err != nil {
		return domain.AnalysisReport{}, err
	}
	return s.Assemble(dataset), nil
}

// Assemble joins the dataset's respondent reports with the reference curves.
func (s *AnalysisService) Assemble(dataset *Dataset) domain.AnalysisReport {
	respondents := dataset.Respondents()
	reports := make([]domain.RespondentReport, 0, len(respondents))
	for _, id := range respondents {
		// ErrEmptyInput cannot occur for IDs taken from the dataset itself.
		report, _ := dataset.Report(id)
		reports = append(reports, report)
	}

	return domain.AnalysisReport{
		GeneratedAt: s.now(),
		Respondents: reports,
		References:  s.References(),
		Warnings:    dataset.Warnings(),
	}
}

func referenceReport(name string, answers []domain.AnswerTriple, nBins int) domain.RespondentReport {
	return domain.RespondentReport{
		RespondentID: name,
		BrierScore:   BrierScore(answers),
		Bins:         CalibrationCurve(answers, nBins),
	}
}

// Dataset is a normalized, in-memory snapshot of all submissions.
type Dataset struct {
	latest   []domain.SubmissionRecord
	warnings []string
	params   Params
}

// Respondents lists respondent IDs in order of their earliest surviving
// submission.
func (d *Dataset) Respondents() []string {
	seen := make(map[string]bool, len(d.latest))
	var ids []string
	for _, sub := range d.latest {
		if !seen[sub.RespondentID] {
			seen[sub.RespondentID] = true
			ids = append(ids, sub.RespondentID)
		}
	}
	return ids
}

// Warnings returns the row-level problems encountered while loading.
func (d *Dataset) Warnings() []string {
	return d.warnings
}

// Report builds the calibration report for one respondent. An unknown
// respondent yields a zero-valued report together with ErrEmptyInput so
// callers can choose between serving the zero report and rejecting.
func (d *Dataset) Report(respondentID string) (domain.RespondentReport, error) {
	answers := ExtractAnswers(d.latest, respondentID)

	var scores []domain.QuizScore
	known := false
	for _, sub := range d.latest {
		if sub.RespondentID == respondentID {
			known = true
			scores = append(scores, domain.QuizScore{QuizID: sub.QuizID, Score: sub.Score, Total: sub.Total})
		}
	}

	report := domain.RespondentReport{
		RespondentID: respondentID,
		BrierScore:   BrierScore(answers),
		Bins:         CalibrationCurve(answers, d.params.Bins),
		FinalScores:  scores,
	}
	if !known {
		return report, domain.ErrEmptyInput
	}
	return report, nil
}

// GetReport adapts Report to the ReportProvider interface.
func (d *Dataset) GetReport(_ context.Context, respondentID string) (domain.RespondentReport, error) {
	return d.Report(respondentID)
}
