package app

import (
	"math"

	"quiz-calibration/internal/domain"
)

// BinAnswers partitions answers into nBins equal-width confidence bins.
// Confidence 100 is clamped into the last bin instead of overflowing.
// Every bin index is present in the result, empty bins included.
func BinAnswers(answers []domain.AnswerTriple, nBins int) map[int][]domain.AnswerTriple {
	width := 100.0 / float64(nBins)
	bins := make(map[int][]domain.AnswerTriple, nBins)
	for i := 0; i < nBins; i++ {
		bins[i] = nil
	}
	for _, a := range answers {
		idx := int(math.Floor(float64(a.Confidence) / width))
		if idx > nBins-1 {
			idx = nBins - 1
		}
		bins[idx] = append(bins[idx], a)
	}
	return bins
}

// BinCentroids returns the midpoint confidence of each bin.
func BinCentroids(nBins int) []float64 {
	width := 100.0 / float64(nBins)
	centroids := make([]float64, nBins)
	for i := range centroids {
		centroids[i] = width*float64(i) + width/2
	}
	return centroids
}

// binStatistics computes the empirical accuracy of a bin together with the
// add-one smoothed bounds (correct+1)/(total+1) and correct/(total+1).
// All three are nil for an empty bin.
func binStatistics(bin []domain.AnswerTriple) (actual, optimistic, pessimistic *float64) {
	if len(bin) == 0 {
		return nil, nil, nil
	}
	correct := 0
	for _, a := range bin {
		if a.IsCorrect() {
			correct++
		}
	}
	total := float64(len(bin))
	return floatPtr(float64(correct) / total),
		floatPtr(float64(correct+1) / (total + 1)),
		floatPtr(float64(correct) / (total + 1))
}

// CalibrationCurve bins the answers and returns per-bin statistics in bin
// order. An empty answer set yields a curve of empty bins.
func CalibrationCurve(answers []domain.AnswerTriple, nBins int) []domain.BinStat {
	bins := BinAnswers(answers, nBins)
	centroids := BinCentroids(nBins)

	curve := make([]domain.BinStat, nBins)
	for i := 0; i < nBins; i++ {
		actual, optimistic, pessimistic := binStatistics(bins[i])
		curve[i] = domain.BinStat{
			Centroid:    centroids[i],
			Samples:     len(bins[i]),
			Accuracy:    actual,
			Optimistic:  optimistic,
			Pessimistic: pessimistic,
		}
	}
	return curve
}

// BrierScore is the mean squared error between stated confidence (as a
// probability) and the binary correctness outcome. Lower is better
// calibrated. An empty answer set scores 0.0.
func BrierScore(answers []domain.AnswerTriple) float64 {
	if len(answers) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, a := range answers {
		correctness := 0.0
		if a.IsCorrect() {
			correctness = 1.0
		}
		predicted := float64(a.Confidence) / 100.0
		sum += (correctness - predicted) * (correctness - predicted)
	}
	return sum / float64(len(answers))
}

func floatPtr(v float64) *float64 { return &v }
