package domain

// Quality is an SM-2 review rating from 0 (complete blackout) to 5 (perfect recall).
type Quality int

// SM-2 quality ratings.
const (
	QualityBlackout  Quality = 0 // no recall at all
	QualityIncorrect Quality = 1 // wrong, but the answer felt familiar
	QualityHardWrong Quality = 2 // wrong, but the answer seemed easy once shown
	QualityDifficult Quality = 3 // correct with serious difficulty
	QualityHesitant  Quality = 4 // correct after hesitation
	QualityPerfect   Quality = 5 // correct with perfect recall
)

// Bounds of the rating scale.
const (
	MinQuality     = QualityBlackout
	MaxQuality     = QualityPerfect
	PassingQuality = QualityDifficult
)

// Valid reports whether q lies in the accepted 0..5 range.
func (q Quality) Valid() bool {
	return q >= MinQuality && q <= MaxQuality
}

// Passed reports whether q counts as a successful review.
func (q Quality) Passed() bool {
	return q >= PassingQuality
}

// ValidateQuality rejects out-of-range ratings with a ValidationError naming the value.
func ValidateQuality(q Quality) error {
	if !q.Valid() {
		return NewValidationError("quality", int(q), ErrInvalidQuality)
	}
	return nil
}
