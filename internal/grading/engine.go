package grading

import (
	"errors"
	"fmt"
)

// ErrQuestionOutOfRange is returned when a question index falls outside its group.
var ErrQuestionOutOfRange = errors.New("question index out of range")

// Outcome is the classification of one question's response pattern.
type Outcome string

const (
	OutcomeMultiple   Outcome = "MULTIPLE"
	OutcomeCorrect    Outcome = "CORRECT"
	OutcomeIncorrect  Outcome = "INCORRECT"
	OutcomeBlank      Outcome = "BLANK"
	OutcomeUnscorable Outcome = "UNSCORABLE"
)

// Classify reads every alternative of a question and resolves the response in
// priority order: multiple selections, then a correct selection, then an
// incorrect selection, then blank.
func Classify(sheet Sheet, group QuestionGroup, question int) (Outcome, error) {
	orientation := group.Orientation()
	if !orientation.Scorable() {
		return OutcomeUnscorable, nil
	}
	if question < 0 || question >= group.QuestionsCount() {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrQuestionOutOfRange, question, group.QuestionsCount())
	}

	var (
		selectedCount     int
		correctSelected   bool
		incorrectSelected bool
	)
	for alt := 0; alt < group.AlternativesCount(); alt++ {
		row, col := orientation.cell(question, alt)
		if sheet.Answer(group, row, col) >= 0 {
			continue
		}
		selectedCount++
		if group.IsCorrectAnswer(question, alt) {
			correctSelected = true
		} else {
			incorrectSelected = true
		}
	}

	switch {
	case selectedCount > 1:
		return OutcomeMultiple, nil
	case correctSelected:
		return OutcomeCorrect, nil
	case incorrectSelected:
		return OutcomeIncorrect, nil
	default:
		return OutcomeBlank, nil
	}
}

// ScoreQuestion returns the bounded score of a single question.
// Questions in an unscorable group are worth exactly 0.
func (s Scheme) ScoreQuestion(sheet Sheet, group QuestionGroup, question int) (float64, error) {
	outcome, err := Classify(sheet, group, question)
	if err != nil {
		return 0, err
	}
	return s.score(outcome), nil
}

// ScoreGroup sums the question scores of a group.
func (s Scheme) ScoreGroup(sheet Sheet, group QuestionGroup) (float64, error) {
	var total float64
	for q := 0; q < group.QuestionsCount(); q++ {
		score, err := s.ScoreQuestion(sheet, group, q)
		if err != nil {
			return 0, err
		}
		total += score
	}
	return total, nil
}

// ScoreSheet sums the group scores over the whole structure.
func (s Scheme) ScoreSheet(sheet Sheet, structure Structure) (float64, error) {
	var total float64
	for i, group := range structure.QuestionGroups() {
		score, err := s.ScoreGroup(sheet, group)
		if err != nil {
			return 0, fmt.Errorf("group %d: %w", i, err)
		}
		total += score
	}
	return total, nil
}

func (s Scheme) score(o Outcome) float64 {
	if o == OutcomeUnscorable {
		return 0
	}
	return s.clamp(s.pointsFor(o))
}
