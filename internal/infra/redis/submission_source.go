package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"quiz-calibration/internal/domain"
)

// DefaultKeyPrefix is where the ingestion front end pushes submission rows:
// one list per quiz, key "submissions:<quiz_id>".
const DefaultKeyPrefix = "submissions:"

// SubmissionSource reads submission rows from per-quiz Redis lists. Rows are
// JSON objects; bad rows are skipped with a warning.
type SubmissionSource struct {
	client    *redis.Client
	keyPrefix string
}

func NewSubmissionSource(client *redis.Client, keyPrefix string) *SubmissionSource {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &SubmissionSource{client: client, keyPrefix: keyPrefix}
}

type submissionRow struct {
	Timestamp string  `json:"timestamp"`
	Token     string  `json:"token"`
	Answers   [][]int `json:"answers"`
	Score     int     `json:"score"`
	Total     int     `json:"total"`
}

func (s *SubmissionSource) LoadSubmissions(ctx context.Context) ([]domain.SubmissionRecord, []string, error) {
	keys, err := s.client.Keys(ctx, s.keyPrefix+"*").Result()
	if err != nil {
		return nil, nil, fmt.Errorf("scan submission keys: %w", err)
	}
	sort.Strings(keys)

	var records []domain.SubmissionRecord
	var warnings []string
	for _, key := range keys {
		quizID := strings.TrimPrefix(key, s.keyPrefix)
		items, err := s.client.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", key, err)
		}
		for i, item := range items {
			record, err := decodeRow(quizID, item)
			if err != nil {
				warnings = append(warnings, (&domain.MalformedRecordError{
					Source: key,
					Row:    i + 1,
					Reason: err.Error(),
				}).Error())
				continue
			}
			records = append(records, record)
		}
	}
	return records, warnings, nil
}

func decodeRow(quizID, item string) (domain.SubmissionRecord, error) {
	var row submissionRow
	if err := json.Unmarshal([]byte(item), &row); err != nil {
		return domain.SubmissionRecord{}, fmt.Errorf("not a JSON row: %v", err)
	}
	ts, err := domain.ParseTimestamp(row.Timestamp)
	if err != nil {
		return domain.SubmissionRecord{}, fmt.Errorf("unparseable timestamp %q", row.Timestamp)
	}
	if row.Token == "" {
		return domain.SubmissionRecord{}, fmt.Errorf("empty token")
	}
	answers := make([]domain.AnswerTriple, 0, len(row.Answers))
	for _, t := range row.Answers {
		if len(t) != 3 {
			return domain.SubmissionRecord{}, fmt.Errorf("answer tuple has %d elements, want 3", len(t))
		}
		if t[2] < 0 || t[2] > 100 {
			return domain.SubmissionRecord{}, fmt.Errorf("confidence %d out of range [0,100]", t[2])
		}
		answers = append(answers, domain.AnswerTriple{Correct: t[0], Chosen: t[1], Confidence: t[2]})
	}
	if row.Score < 0 || row.Score > row.Total || row.Total != len(answers) {
		return domain.SubmissionRecord{}, fmt.Errorf("inconsistent score %d/%d for %d answers", row.Score, row.Total, len(answers))
	}
	return domain.SubmissionRecord{
		Timestamp:    ts,
		RespondentID: row.Token,
		QuizID:       quizID,
		Answers:      answers,
		Score:        row.Score,
		Total:        row.Total,
	}, nil
}
