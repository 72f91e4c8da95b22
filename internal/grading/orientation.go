package grading

import "strings"

// Orientation describes how a group's alternatives are laid out on the sheet grid.
type Orientation int

const (
	// Unscorable covers any layout the engine does not know how to read.
	// Every question in such a group scores 0.
	Unscorable Orientation = iota
	// Vertical groups store one question per row, alternatives along the columns.
	Vertical
	// Horizontal groups store one question per column, alternatives along the rows.
	Horizontal
)

// ParseOrientation maps "VERTICAL" and "HORIZONTAL" (any case) to their
// orientation. Anything else is Unscorable.
func ParseOrientation(s string) Orientation {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VERTICAL":
		return Vertical
	case "HORIZONTAL":
		return Horizontal
	default:
		return Unscorable
	}
}

func (o Orientation) Scorable() bool {
	return o == Vertical || o == Horizontal
}

func (o Orientation) String() string {
	switch o {
	case Vertical:
		return "VERTICAL"
	case Horizontal:
		return "HORIZONTAL"
	default:
		return "UNSCORABLE"
	}
}

// cell returns the sheet (row, col) holding the given alternative of a question.
func (o Orientation) cell(question, alternative int) (row, col int) {
	if o == Horizontal {
		return alternative, question
	}
	return question, alternative
}
