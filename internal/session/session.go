package session

import "github.com/Koyo-os/questionnaire-service/internal/entity"

// AnswerState is a set of in-progress answers and their field errors
type AnswerState struct {
	Answers entity.Answers
	Errors  map[string]string
}

func newAnswerState() AnswerState {
	return AnswerState{
		Answers: entity.Answers{},
		Errors:  map[string]string{},
	}
}

func (a *AnswerState) set(questionID string, answer entity.Answer) {
	a.Answers[questionID] = answer
	delete(a.Errors, questionID)
}

// prune drops answers whose question was removed or retyped between prev and next
func (a *AnswerState) prune(prev, next entity.FormDefinition) {
	keep := func(id string) bool {
		nq, ok := next.Question(id)
		if !ok {
			return false
		}
		pq, _ := prev.Question(id)
		return pq.Type == nq.Type
	}

	for id := range a.Answers {
		if !keep(id) {
			delete(a.Answers, id)
		}
	}
	for id := range a.Errors {
		if !keep(id) {
			delete(a.Errors, id)
		}
	}
}

// Session is the state owned by a Controller. Nothing else writes it.
type Session struct {
	UserID string
	Page   Page
	FormID string

	Forms  []entity.FormDefinition
	Filter Filter

	Draft   *entity.FormDefinition
	Unsaved bool
	Preview AnswerState // builder preview answers, never submitted

	AnswerFormID string
	AnswerForm   *entity.FormDefinition
	Answer       AnswerState
	Completed    bool
	Submitting   bool

	ResultsForm    *entity.FormDefinition
	Summary        *entity.ResponseSummary
	ResultsBlocked bool

	Warnings []string
	Message  string
	NotFound bool
}

func newSession() Session {
	return Session{
		Page:    PageLogin,
		Filter:  Filter{Status: StatusAll},
		Preview: newAnswerState(),
		Answer:  newAnswerState(),
	}
}

// resetAnswer starts a fresh answer session for formID
func (s *Session) resetAnswer(formID string) {
	s.AnswerFormID = formID
	s.AnswerForm = nil
	s.Answer = newAnswerState()
	s.Completed = false
	s.Submitting = false
}
