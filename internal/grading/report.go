package grading

import "fmt"

// QuestionResult is the graded state of one question.
type QuestionResult struct {
	Question int     `json:"question"`
	Outcome  Outcome `json:"outcome"`
	Score    float64 `json:"score"`
}

// GroupResult aggregates the questions of one group.
type GroupResult struct {
	Group       int              `json:"group"`
	Orientation string           `json:"orientation"`
	Score       float64          `json:"score"`
	Questions   []QuestionResult `json:"questions"`
}

// Report is a full breakdown of a graded sheet. Total always equals ScoreSheet.
type Report struct {
	Total  float64       `json:"total"`
	Groups []GroupResult `json:"groups"`
}

// Counts tallies questions by outcome.
func (r Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, g := range r.Groups {
		for _, q := range g.Questions {
			counts[q.Outcome]++
		}
	}
	return counts
}

// Grade scores a sheet and keeps the per-group and per-question breakdown.
func (s Scheme) Grade(sheet Sheet, structure Structure) (Report, error) {
	groups := structure.QuestionGroups()
	report := Report{Groups: make([]GroupResult, 0, len(groups))}

	for i, group := range groups {
		gr := GroupResult{
			Group:       i,
			Orientation: group.Orientation().String(),
			Questions:   make([]QuestionResult, 0, group.QuestionsCount()),
		}
		for q := 0; q < group.QuestionsCount(); q++ {
			outcome, err := Classify(sheet, group, q)
			if err != nil {
				return Report{}, fmt.Errorf("group %d: %w", i, err)
			}
			score := s.score(outcome)
			gr.Questions = append(gr.Questions, QuestionResult{Question: q, Outcome: outcome, Score: score})
			gr.Score += score
		}
		report.Groups = append(report.Groups, gr)
		report.Total += gr.Score
	}
	return report, nil
}
