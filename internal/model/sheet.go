package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/grading"
)

// SheetStatus enumerates the grading states of a scanned sheet.
type SheetStatus string

const (
	SheetStatusPending SheetStatus = "PENDING"
	SheetStatusGraded  SheetStatus = "GRADED"
)

// MarkGrid holds detected mark values per group, row and column.
// A negative value means the bubble is filled.
type MarkGrid [][][]float64

// Answer implements grading.Sheet. Cells outside the grid read as unselected.
func (m MarkGrid) Answer(group grading.QuestionGroup, row, col int) float64 {
	ig, ok := group.(interface{ GroupIndex() int })
	if !ok {
		return 0
	}
	g := ig.GroupIndex()
	if g < 0 || g >= len(m) || row < 0 || row >= len(m[g]) || col < 0 || col >= len(m[g][row]) {
		return 0
	}
	return m[g][row][col]
}

// Sheet is one scanned answer sheet belonging to a test.
type Sheet struct {
	ID        uuid.UUID   `json:"id"`
	TestID    uuid.UUID   `json:"test_id"`
	Label     string      `json:"label"`
	Marks     MarkGrid    `json:"marks"`
	Status    SheetStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// SubmitSheetRequest is the payload for uploading a scanned sheet.
type SubmitSheetRequest struct {
	Label    string        `json:"label" binding:"required,max=100"`
	Marks    [][][]float64 `json:"marks" binding:"required"`
	SchemeID string        `json:"scheme_id" binding:"omitempty,uuid"`
}

// GradeAllRequest triggers grading of every sheet of a test.
type GradeAllRequest struct {
	SchemeID string `json:"scheme_id" binding:"omitempty,uuid"`
}

// GradeJob is the queue payload consumed by the grading worker.
type GradeJob struct {
	SheetID  string `json:"sheet_id"`
	TestID   string `json:"test_id"`
	SchemeID string `json:"scheme_id,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}
