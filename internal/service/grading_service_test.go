package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/model"
)

func defaultScheme(t *testing.T) grading.Scheme {
	t.Helper()
	s, err := grading.DefaultScheme(grading.StandardDefaults)
	if err != nil {
		t.Fatalf("DefaultScheme: %v", err)
	}
	return s
}

// sampleTest has a vertical group of 2 questions x 4 alternatives and a
// horizontal group of 3 questions x 2 alternatives.
func sampleTest() *model.Test {
	return &model.Test{
		ID:   uuid.New(),
		Name: "sample",
		Groups: []model.QuestionGroupDef{
			{Layout: "VERTICAL", Alternatives: 4, Questions: 2, Correct: [][]int{{1}, {3}}},
			{Layout: "HORIZONTAL", Alternatives: 2, Questions: 3, Correct: [][]int{{0}, {1}, {0}}},
		},
	}
}

func TestGradeMarks(t *testing.T) {
	test := sampleTest()
	marks := model.MarkGrid{
		// vertical: row = question, col = alternative
		{
			{1, -1, 1, 1},  // q0 correct
			{-1, 1, 1, -1}, // q1 multiple
		},
		// horizontal: row = alternative, col = question
		{
			{-1, 1, 1}, // alternative 0
			{1, 1, 1},  // alternative 1
		},
	}

	report, err := GradeMarks(defaultScheme(t), test.Groups, marks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1 - 0.5 + (1 + 0 + 0)
	if report.Total != 1.5 {
		t.Errorf("Expected total 1.5, got %v", report.Total)
	}
	if report.Groups[1].Questions[1].Outcome != grading.OutcomeBlank {
		t.Errorf("Expected blank, got %s", report.Groups[1].Questions[1].Outcome)
	}
}

func TestBuildResult(t *testing.T) {
	test := sampleTest()
	schemeID := uuid.New()
	now := time.Now()

	sheet := &model.Sheet{ID: uuid.New(), TestID: test.ID, Label: "A-01"}
	res, err := BuildResult(defaultScheme(t), &schemeID, test, sheet, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || res.Label != "A-01" || *res.SchemeID != schemeID || !res.GradedAt.Equal(now) {
		t.Errorf("unexpected result: %+v", res)
	}
	if n := res.Event().Counts[grading.OutcomeBlank]; n != 5 {
		t.Errorf("Expected 5 blank questions, got %d", n)
	}

	other := &model.Sheet{ID: uuid.New(), TestID: uuid.New()}
	if _, err := BuildResult(defaultScheme(t), nil, test, other, now); !errors.Is(err, ErrSheetTestMismatch) {
		t.Errorf("Expected ErrSheetTestMismatch, got %v", err)
	}
}

func TestValidateGroups(t *testing.T) {
	tests := []struct {
		name    string
		group   model.QuestionGroupDef
		wantErr bool
	}{
		{"valid", model.QuestionGroupDef{Alternatives: 4, Questions: 2, Correct: [][]int{{0}, {1, 2}}}, false},
		{"partial key", model.QuestionGroupDef{Alternatives: 4, Questions: 3, Correct: [][]int{{0}}}, false},
		{"no correct alternative", model.QuestionGroupDef{Alternatives: 4, Questions: 1, Correct: [][]int{{}}}, false},
		{"too many keyed questions", model.QuestionGroupDef{Alternatives: 4, Questions: 1, Correct: [][]int{{0}, {1}}}, true},
		{"alternative out of range", model.QuestionGroupDef{Alternatives: 4, Questions: 1, Correct: [][]int{{4}}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGroups([]model.QuestionGroupDef{tc.group})
			if tc.wantErr != errors.Is(err, ErrInvalidAnswerKey) {
				t.Errorf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestMalformedJobIDsAreInvalid(t *testing.T) {
	if _, err := (&GradingService{}).Evaluate(context.Background(), &model.GradeJob{SheetID: "not-a-uuid"}); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("Evaluate error = %v, want ErrInvalidJob", err)
	}
	if _, _, err := (&SchemeService{}).Resolve(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidScheme) {
		t.Errorf("Resolve error = %v, want ErrInvalidScheme", err)
	}
}
