package grading

// QuestionGroup is a block of questions sharing one layout and alternative count.
type QuestionGroup interface {
	Orientation() Orientation
	AlternativesCount() int
	QuestionsCount() int
	// IsCorrectAnswer reports whether the alternative is part of the question's key.
	// A question may have zero, one or several correct alternatives.
	IsCorrectAnswer(question, alternative int) bool
}

// Sheet exposes the detected mark at a grid cell of a group.
// A value strictly below zero means the cell is selected.
type Sheet interface {
	Answer(group QuestionGroup, row, col int) float64
}

// Structure lists the question groups of a sheet in reading order.
type Structure interface {
	QuestionGroups() []QuestionGroup
}
