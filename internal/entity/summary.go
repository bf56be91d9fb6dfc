package entity

type (
	// OptionCount is the number of responses selecting one option
	OptionCount struct {
		OptionID string `json:"optionId" yaml:"option_id"`
		Label    string `json:"label" yaml:"label"`
		Count    int    `json:"count" yaml:"count"`
	}

	// QuestionSummary aggregates all responses for one question.
	// RecentAnswers is set for text questions, OptionCounts for choice questions.
	QuestionSummary struct {
		QuestionID      string        `json:"questionId" yaml:"question_id"`
		Title           string        `json:"title" yaml:"title"`
		Type            QuestionType  `json:"type" yaml:"type"`
		AnsweredCount   int           `json:"answeredCount" yaml:"answered"`
		UnansweredCount int           `json:"unansweredCount" yaml:"unanswered"`
		RecentAnswers   []string      `json:"recentAnswers,omitempty" yaml:"recent_answers,omitempty"`
		OptionCounts    []OptionCount `json:"optionCounts,omitempty" yaml:"option_counts,omitempty"`
	}

	// ResponseSummary is derived from a form and its responses; it is never stored
	ResponseSummary struct {
		TotalResponses int               `json:"totalResponses" yaml:"total_responses"`
		Questions      []QuestionSummary `json:"questions" yaml:"questions"`
	}
)

// Clone returns a deep copy of the summary
func (s ResponseSummary) Clone() ResponseSummary {
	out := s
	if s.Questions != nil {
		out.Questions = make([]QuestionSummary, len(s.Questions))
		for i, q := range s.Questions {
			out.Questions[i] = q.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the question summary
func (q QuestionSummary) Clone() QuestionSummary {
	out := q
	if q.RecentAnswers != nil {
		out.RecentAnswers = append([]string(nil), q.RecentAnswers...)
	}
	if q.OptionCounts != nil {
		out.OptionCounts = append([]OptionCount(nil), q.OptionCounts...)
	}
	return out
}
