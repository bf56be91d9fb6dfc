package results

import "github.com/Koyo-os/questionnaire-service/internal/entity"

// RecentAnswersLimit caps the text samples kept per question
const RecentAnswersLimit = 5

// SummarizeResponses tallies responses against the form's current questions.
// Answers keyed by removed questions are ignored; choices that match no
// current option label are dropped.
func SummarizeResponses(form entity.FormDefinition, responses []entity.Response) entity.ResponseSummary {
	summary := entity.ResponseSummary{
		TotalResponses: len(responses),
		Questions:      make([]entity.QuestionSummary, 0, len(form.Questions)),
	}

	for _, q := range form.Questions {
		var qs entity.QuestionSummary
		if q.Type == entity.QuestionText {
			qs = summarizeText(q, responses)
		} else {
			qs = summarizeChoice(q, responses)
		}
		qs.UnansweredCount = len(responses) - qs.AnsweredCount
		summary.Questions = append(summary.Questions, qs)
	}

	return summary
}

func summarizeText(q entity.Question, responses []entity.Response) entity.QuestionSummary {
	answers := []string{}
	for _, r := range responses {
		if v, ok := textAnswer(r.Answers[q.ID]); ok {
			answers = append(answers, v)
		}
	}

	start := max(len(answers)-RecentAnswersLimit, 0)
	recent := make([]string, 0, len(answers)-start)
	for i := len(answers) - 1; i >= start; i-- {
		recent = append(recent, answers[i])
	}

	return entity.QuestionSummary{
		QuestionID:    q.ID,
		Title:         q.Title,
		Type:          q.Type,
		AnsweredCount: len(answers),
		RecentAnswers: recent,
	}
}

func summarizeChoice(q entity.Question, responses []entity.Response) entity.QuestionSummary {
	counts := make([]entity.OptionCount, len(q.Options))
	byLabel := make(map[string]int, len(q.Options))
	for i, o := range q.Options {
		counts[i] = entity.OptionCount{OptionID: o.ID, Label: o.Label}
		if _, dup := byLabel[o.Label]; !dup {
			byLabel[o.Label] = i
		}
	}

	tally := func(label string) {
		if i, ok := byLabel[label]; ok {
			counts[i].Count++
		}
	}

	answered := 0
	for _, r := range responses {
		answer := r.Answers[q.ID]
		if q.Type == entity.QuestionMultiChoice {
			if labels, ok := multiAnswer(answer); ok {
				answered++
				for _, label := range labels {
					tally(label)
				}
			}
			continue
		}

		if label, ok := singleAnswer(answer); ok {
			answered++
			tally(label)
		}
	}

	return entity.QuestionSummary{
		QuestionID:    q.ID,
		Title:         q.Title,
		Type:          q.Type,
		AnsweredCount: answered,
		OptionCounts:  counts,
	}
}
