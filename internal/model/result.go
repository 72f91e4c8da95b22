package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/grading"
)

// GradeResult is the persisted outcome of grading one sheet.
type GradeResult struct {
	SheetID  uuid.UUID      `json:"sheet_id"`
	TestID   uuid.UUID      `json:"test_id"`
	SchemeID *uuid.UUID     `json:"scheme_id,omitempty"`
	Label    string         `json:"label,omitempty"`
	Total    float64        `json:"total"`
	Report   grading.Report `json:"report"`
	GradedAt time.Time      `json:"graded_at"`
}

// GradeRequest grades a sheet without storing anything. Scheme falls back to
// the configured default when omitted.
type GradeRequest struct {
	Scheme *SchemeValues      `json:"scheme"`
	Groups []QuestionGroupDef `json:"groups" binding:"required,min=1,max=50,dive"`
	Marks  [][][]float64      `json:"marks" binding:"required"`
}

// GradeResponse is returned by the stateless grading endpoint.
type GradeResponse struct {
	Total  float64                 `json:"total"`
	Counts map[grading.Outcome]int `json:"counts"`
	Report grading.Report          `json:"report"`
}

// ResultEvent is published to live subscribers after a sheet is graded.
type ResultEvent struct {
	SheetID  uuid.UUID               `json:"sheet_id"`
	TestID   uuid.UUID               `json:"test_id"`
	Label    string                  `json:"label"`
	Total    float64                 `json:"total"`
	Counts   map[grading.Outcome]int `json:"counts"`
	GradedAt time.Time               `json:"graded_at"`
}

// Event summarises the result for live subscribers.
func (r *GradeResult) Event() ResultEvent {
	return ResultEvent{
		SheetID:  r.SheetID,
		TestID:   r.TestID,
		Label:    r.Label,
		Total:    r.Total,
		Counts:   r.Report.Counts(),
		GradedAt: r.GradedAt,
	}
}
