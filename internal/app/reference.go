package app

import (
	"math/rand"

	"quiz-calibration/internal/domain"
)

// GenerateReference synthesizes n answers for a baseline agent, spread
// evenly across the bin centroids (n/nBins per bin, remainder discarded).
// The perfect agent always picks the correct option; the guesser picks
// uniformly from the option set regardless of correctness. The random
// source is caller-supplied so tests can pin a seed.
func GenerateReference(kind domain.ReferenceKind, n, nBins, optionCount int, rnd *rand.Rand) []domain.AnswerTriple {
	perBin := n / nBins
	centroids := BinCentroids(nBins)

	answers := make([]domain.AnswerTriple, 0, perBin*nBins)
	for _, centroid := range centroids {
		confidence := int(centroid)
		for i := 0; i < perBin; i++ {
			correct := rnd.Intn(optionCount)
			chosen := correct
			if kind == domain.ReferenceGuesser {
				chosen = rnd.Intn(optionCount)
			}
			answers = append(answers, domain.AnswerTriple{
				Correct:    correct,
				Chosen:     chosen,
				Confidence: confidence,
			})
		}
	}
	return answers
}
