package grading

import (
	"errors"
	"fmt"
	"math"
)

// Scheme errors.
var (
	ErrInvertedBounds = errors.New("min score is greater than max score")
	ErrNotANumber     = errors.New("score value is NaN")
)

// Defaults holds the three configurable point values the default scheme is built from.
type Defaults struct {
	Correct   float64
	Incorrect float64
	None      float64
}

// StandardDefaults is 1 point for a correct answer, -0.5 for a wrong one, 0 for a blank.
var StandardDefaults = Defaults{Correct: 1.0, Incorrect: -0.5, None: 0.0}

// Scheme maps a question's response classification to points and bounds the
// result per question. The zero value scores everything as 0.
type Scheme struct {
	correct   float64
	incorrect float64
	none      float64
	multiple  float64
	min       float64
	max       float64
}

// NewScheme builds a scheme. An inverted [min, max] range is rejected.
func NewScheme(correct, incorrect, none, multiple, minScore, maxScore float64) (Scheme, error) {
	for _, v := range []float64{correct, incorrect, none, multiple, minScore, maxScore} {
		if math.IsNaN(v) {
			return Scheme{}, ErrNotANumber
		}
	}
	if minScore > maxScore {
		return Scheme{}, fmt.Errorf("%w: %g > %g", ErrInvertedBounds, minScore, maxScore)
	}
	return Scheme{
		correct:   correct,
		incorrect: incorrect,
		none:      none,
		multiple:  multiple,
		min:       minScore,
		max:       maxScore,
	}, nil
}

// DefaultScheme derives the default policy: multiple selections score like an
// incorrect answer, and each question is bounded by [Incorrect, Correct].
func DefaultScheme(d Defaults) (Scheme, error) {
	return NewScheme(d.Correct, d.Incorrect, d.None, d.Incorrect, d.Incorrect, d.Correct)
}

func (s Scheme) CorrectScore() float64          { return s.correct }
func (s Scheme) IncorrectScore() float64        { return s.incorrect }
func (s Scheme) DefaultScore() float64          { return s.none }
func (s Scheme) MultipleSelectedScore() float64 { return s.multiple }
func (s Scheme) MinScore() float64              { return s.min }
func (s Scheme) MaxScore() float64              { return s.max }

// clamp bounds a raw question score.
func (s Scheme) clamp(score float64) float64 {
	if score < s.min {
		return s.min
	}
	if score > s.max {
		return s.max
	}
	return score
}

// pointsFor returns the unbounded points for an outcome.
func (s Scheme) pointsFor(o Outcome) float64 {
	switch o {
	case OutcomeMultiple:
		return s.multiple
	case OutcomeCorrect:
		return s.correct
	case OutcomeIncorrect:
		return s.incorrect
	case OutcomeBlank:
		return s.none
	default:
		return 0
	}
}
