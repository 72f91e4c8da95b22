package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/grading"
)

// QuestionGroupDef is one block of questions on the answer sheet together with its key.
type QuestionGroupDef struct {
	Name         string `json:"name" binding:"max=100"`
	Layout       string `json:"orientation" binding:"required,orientation"`
	Alternatives int    `json:"alternatives" binding:"required,min=1,max=26"`
	Questions    int    `json:"questions" binding:"required,min=1,max=500"`
	// Correct[q] lists the correct alternative indices of question q.
	Correct [][]int `json:"correct" binding:"dive,dive,min=0"`
}

// Test is an answer key: the ordered question groups of one sheet layout.
type Test struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Groups    []QuestionGroupDef `json:"groups"`
	CreatedBy int                `json:"created_by"`
	CreatedAt time.Time          `json:"created_at"`
}

// CreateTestRequest is the payload for registering an answer key.
type CreateTestRequest struct {
	Name   string             `json:"name" binding:"required,min=1,max=200"`
	Groups []QuestionGroupDef `json:"groups" binding:"required,min=1,max=50,dive"`
}

// Structure adapts a list of group definitions to the grading engine.
type Structure []QuestionGroupDef

// QuestionGroups returns the groups in sheet order.
func (s Structure) QuestionGroups() []grading.QuestionGroup {
	groups := make([]grading.QuestionGroup, len(s))
	for i := range s {
		groups[i] = &groupView{def: &s[i], index: i}
	}
	return groups
}

// Structure returns the test's groups as a grading structure.
func (t *Test) Structure() Structure {
	return Structure(t.Groups)
}

// groupView binds a definition to its position so a MarkGrid can find its cells.
type groupView struct {
	def   *QuestionGroupDef
	index int
}

func (g *groupView) Orientation() grading.Orientation {
	return grading.ParseOrientation(g.def.Layout)
}

func (g *groupView) AlternativesCount() int { return g.def.Alternatives }
func (g *groupView) QuestionsCount() int    { return g.def.Questions }
func (g *groupView) GroupIndex() int        { return g.index }

func (g *groupView) IsCorrectAnswer(question, alternative int) bool {
	if question < 0 || question >= len(g.def.Correct) {
		return false
	}
	for _, a := range g.def.Correct[question] {
		if a == alternative {
			return true
		}
	}
	return false
}
