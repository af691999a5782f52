package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-calibration/internal/domain"
)

// SubmissionLoader reads submission rows from Postgres. The collection
// front end inserts into the submissions table; answers are stored as JSONB
// arrays of [correct, chosen, confidence].
type SubmissionLoader struct {
	pool *pgxpool.Pool
}

func NewSubmissionLoader(pool *pgxpool.Pool) *SubmissionLoader {
	return &SubmissionLoader{pool: pool}
}

func (l *SubmissionLoader) LoadSubmissions(ctx context.Context) ([]domain.SubmissionRecord, []string, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT quiz_id, respondent_id, submitted_at, answers, score, total
		 FROM submissions ORDER BY submitted_at, id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var records []domain.SubmissionRecord
	var warnings []string
	n := 0
	for rows.Next() {
		n++
		var record domain.SubmissionRecord
		var rawAnswers []byte
		if err := rows.Scan(&record.QuizID, &record.RespondentID, &record.Timestamp,
			&rawAnswers, &record.Score, &record.Total); err != nil {
			return nil, nil, fmt.Errorf("scan submission: %w", err)
		}
		answers, err := decodeAnswers(rawAnswers)
		if err == nil && (record.Score < 0 || record.Score > record.Total || record.Total != len(answers)) {
			err = fmt.Errorf("inconsistent score %d/%d for %d answers", record.Score, record.Total, len(answers))
		}
		if err != nil {
			warnings = append(warnings, (&domain.MalformedRecordError{
				Source: "submissions",
				Row:    n,
				Reason: err.Error(),
			}).Error())
			continue
		}
		record.Answers = answers
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read submissions: %w", err)
	}
	return records, warnings, nil
}

func decodeAnswers(raw []byte) ([]domain.AnswerTriple, error) {
	var tuples [][]int
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, fmt.Errorf("answers are not an array of triples: %v", err)
	}
	answers := make([]domain.AnswerTriple, 0, len(tuples))
	for _, t := range tuples {
		if len(t) != 3 {
			return nil, fmt.Errorf("answer tuple has %d elements, want 3", len(t))
		}
		if t[2] < 0 || t[2] > 100 {
			return nil, fmt.Errorf("confidence %d out of range [0,100]", t[2])
		}
		answers = append(answers, domain.AnswerTriple{Correct: t[0], Chosen: t[1], Confidence: t[2]})
	}
	return answers, nil
}
