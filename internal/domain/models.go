package domain

import "time"

// AnswerTriple is one answered question: the correct option, the option the
// respondent chose, and the self-reported confidence in percent.
type AnswerTriple struct {
	Correct    int `json:"correct"`
	Chosen     int `json:"chosen"`
	Confidence int `json:"confidence"` // 0-100
}

// IsCorrect reports whether the chosen option matches the correct one.
func (a AnswerTriple) IsCorrect() bool {
	return a.Chosen == a.Correct
}

// SubmissionRecord is one quiz submission by one respondent.
type SubmissionRecord struct {
	Timestamp    time.Time      `json:"timestamp"`
	RespondentID string         `json:"respondentId"`
	QuizID       string         `json:"quizId"`
	Answers      []AnswerTriple `json:"answers"`
	Score        int            `json:"score"`
	Total        int            `json:"total"`
}

// QuizScore is a respondent's final score on one quiz.
type QuizScore struct {
	QuizID string `json:"quizId"`
	Score  int    `json:"score"`
	Total  int    `json:"total"`
}

// BinStat holds the calibration statistics for one confidence bin.
// Accuracy fields are nil when the bin received no answers.
type BinStat struct {
	Centroid float64 `json:"centroid"`
	Samples  int     `json:"samples"`
	// Accuracy is correct/total within the bin.
	Accuracy *float64 `json:"accuracy"`
	// Optimistic and Pessimistic bound the plausible accuracy of small
	// bins: (correct+1)/(total+1) and correct/(total+1).
	Optimistic  *float64 `json:"optimistic"`
	Pessimistic *float64 `json:"pessimistic"`
}

// RespondentReport is the per-respondent analysis output consumed by
// rendering/plotting collaborators.
type RespondentReport struct {
	RespondentID string      `json:"respondentId"`
	BrierScore   float64     `json:"brierScore"`
	Bins         []BinStat   `json:"bins"`
	FinalScores  []QuizScore `json:"finalScores,omitempty"`
}

// ReferenceKind selects a synthetic baseline agent.
type ReferenceKind string

const (
	// ReferencePerfect always chooses the correct option.
	ReferencePerfect ReferenceKind = "perfect"
	// ReferenceGuesser chooses uniformly at random, ignoring correctness.
	ReferenceGuesser ReferenceKind = "random_guesser"
)

// AnalysisReport joins every respondent's calibration data with the
// reference curves and the warnings accumulated while loading input.
type AnalysisReport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Respondents []RespondentReport `json:"respondents"`
	References  []RespondentReport `json:"references"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// timestampLayouts covers RFC 3339 plus the zone-less ISO 8601 variants the
// collection front end writes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 submission timestamp, with or without a
// zone offset. Zone-less values are taken as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}
