package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/grading"
)

// Scheme is a stored grading policy.
type Scheme struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	CorrectScore          float64   `json:"correct_score"`
	IncorrectScore        float64   `json:"incorrect_score"`
	DefaultScore          float64   `json:"default_score"`
	MultipleSelectedScore float64   `json:"multiple_selected_score"`
	MinScore              float64   `json:"min_score"`
	MaxScore              float64   `json:"max_score"`
	CreatedAt             time.Time `json:"created_at"`
}

// ToGrading builds the engine value. It fails for inverted bounds.
func (s *Scheme) ToGrading() (grading.Scheme, error) {
	return grading.NewScheme(s.CorrectScore, s.IncorrectScore, s.DefaultScore,
		s.MultipleSelectedScore, s.MinScore, s.MaxScore)
}

// SchemeFromGrading copies an engine scheme into a model.
func SchemeFromGrading(name string, g grading.Scheme) *Scheme {
	return &Scheme{
		Name:                  name,
		CorrectScore:          g.CorrectScore(),
		IncorrectScore:        g.IncorrectScore(),
		DefaultScore:          g.DefaultScore(),
		MultipleSelectedScore: g.MultipleSelectedScore(),
		MinScore:              g.MinScore(),
		MaxScore:              g.MaxScore(),
	}
}

// SchemeValues carries the six point values of a scheme.
// Pointers keep an explicit 0 distinguishable from a missing field.
type SchemeValues struct {
	CorrectScore          *float64 `json:"correct_score" binding:"required"`
	IncorrectScore        *float64 `json:"incorrect_score" binding:"required"`
	DefaultScore          *float64 `json:"default_score" binding:"required"`
	MultipleSelectedScore *float64 `json:"multiple_selected_score" binding:"required"`
	MinScore              *float64 `json:"min_score" binding:"required"`
	MaxScore              *float64 `json:"max_score" binding:"required"`
}

// ToGrading builds the engine value from validated request values.
func (v *SchemeValues) ToGrading() (grading.Scheme, error) {
	return grading.NewScheme(*v.CorrectScore, *v.IncorrectScore, *v.DefaultScore,
		*v.MultipleSelectedScore, *v.MinScore, *v.MaxScore)
}

// CreateSchemeRequest is the payload for storing a grading scheme.
type CreateSchemeRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	SchemeValues
}
