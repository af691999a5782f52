package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"quiz-calibration/internal/domain"
)

// SubmissionSource reads the per-quiz CSV files written by the collection
// front end. Each file holds one quiz; the quiz ID is the file stem.
// Expected columns: timestamp, token, answers, score, total, where answers
// is a bracketed list of (correct, chosen, confidence) triples.
type SubmissionSource struct {
	patterns []string
}

func NewSubmissionSource(patterns ...string) *SubmissionSource {
	return &SubmissionSource{patterns: patterns}
}

func (s *SubmissionSource) LoadSubmissions(ctx context.Context) ([]domain.SubmissionRecord, []string, error) {
	var files []string
	for _, pattern := range s.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("bad csv pattern %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	var rows []domain.SubmissionRecord
	var warnings []string
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		fileRows, fileWarnings, err := loadFile(file)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, fileRows...)
		warnings = append(warnings, fileWarnings...)
	}
	return rows, warnings, nil
}

func loadFile(path string) ([]domain.SubmissionRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"timestamp", "token", "answers", "score", "total"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	quizID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var rows []domain.SubmissionRecord
	var warnings []string
	for i, record := range records[1:] {
		row, err := parseRow(record, columns, quizID)
		if err != nil {
			warnings = append(warnings, (&domain.MalformedRecordError{
				Source: filepath.Base(path),
				Row:    i + 1,
				Reason: err.Error(),
			}).Error())
			continue
		}
		rows = append(rows, row)
	}
	return rows, warnings, nil
}

func parseRow(record []string, columns map[string]int, quizID string) (domain.SubmissionRecord, error) {
	field := func(name string) (string, error) {
		idx := columns[name]
		if idx >= len(record) {
			return "", fmt.Errorf("missing field %q", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	var row domain.SubmissionRecord
	raw, err := field("timestamp")
	if err != nil {
		return row, err
	}
	ts, err := domain.ParseTimestamp(raw)
	if err != nil {
		return row, fmt.Errorf("unparseable timestamp %q", raw)
	}

	token, err := field("token")
	if err != nil {
		return row, err
	}
	if token == "" {
		return row, fmt.Errorf("empty token")
	}

	rawAnswers, err := field("answers")
	if err != nil {
		return row, err
	}
	answers, err := ParseAnswerList(rawAnswers)
	if err != nil {
		return row, err
	}

	score, err := intField(field, "score")
	if err != nil {
		return row, err
	}
	total, err := intField(field, "total")
	if err != nil {
		return row, err
	}
	if score < 0 || score > total || total != len(answers) {
		return row, fmt.Errorf("inconsistent score %d/%d for %d answers", score, total, len(answers))
	}

	return domain.SubmissionRecord{
		Timestamp:    ts,
		RespondentID: token,
		QuizID:       quizID,
		Answers:      answers,
		Score:        score,
		Total:        total,
	}, nil
}

func intField(field func(string) (string, error), name string) (int, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("non-integer %s %q", name, raw)
	}
	return v, nil
}

// ParseAnswerList decodes an answers cell such as
// "[(0, 1, 75), (2, 2, 90)]" or "[[0,1,75],[2,2,90]]" into triples.
func ParseAnswerList(raw string) ([]domain.AnswerTriple, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')', ' ', '\'', '"':
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return nil, nil
	}

	parts := strings.Split(cleaned, ",")
	if len(parts)%3 != 0 {
		return nil, fmt.Errorf("answers %q do not form (correct, chosen, confidence) triples", raw)
	}

	answers := make([]domain.AnswerTriple, 0, len(parts)/3)
	for i := 0; i < len(parts); i += 3 {
		correct, err1 := strconv.Atoi(parts[i])
		chosen, err2 := strconv.Atoi(parts[i+1])
		confidence, err3 := strconv.Atoi(parts[i+2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("non-integer value in answers %q", raw)
		}
		if confidence < 0 || confidence > 100 {
			return nil, fmt.Errorf("confidence %d out of range [0,100]", confidence)
		}
		answers = append(answers, domain.AnswerTriple{Correct: correct, Chosen: chosen, Confidence: confidence})
	}
	return answers, nil
}
