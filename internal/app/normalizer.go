package app

import (
	"sort"

	"quiz-calibration/internal/domain"
)

// NormalizeSubmissions keeps the most recent submission per
// (respondent, quiz) pair. Rows are stable-sorted by timestamp ascending so
// equal timestamps resolve to the last-seen row. The result is ordered by
// the timestamp of the surviving submissions, which makes the operation
// idempotent: normalizing an already-normalized set is a no-op.
func NormalizeSubmissions(rows []domain.SubmissionRecord) []domain.SubmissionRecord {
	sorted := make([]domain.SubmissionRecord, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	type key struct{ respondent, quiz string }
	latest := make(map[key]int, len(sorted))
	for i, row := range sorted {
		latest[key{row.RespondentID, row.QuizID}] = i
	}

	out := make([]domain.SubmissionRecord, 0, len(latest))
	for i, row := range sorted {
		if latest[key{row.RespondentID, row.QuizID}] == i {
			out = append(out, row)
		}
	}
	return out
}

// ExtractAnswers flattens every answer the respondent gave across all
// quizzes, in submission order. Pure projection, no filtering beyond
// respondent identity.
func ExtractAnswers(submissions []domain.SubmissionRecord, respondentID string) []domain.AnswerTriple {
	var answers []domain.AnswerTriple
	for _, sub := range submissions {
		if sub.RespondentID == respondentID {
			answers = append(answers, sub.Answers...)
		}
	}
	return answers
}
