// Package results validates candidate responses and aggregates stored ones.
// Both operations are pure and read answers through the question's declared
// type, so an answer of the wrong shape counts as missing.
package results

import (
	"strings"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
)

const (
	MsgTextRequired   = "please enter an answer"
	MsgChoiceRequired = "please choose an option"
	MsgMultiRequired  = "please choose at least one option"
)

// Validation is the outcome of checking a response against a form
type Validation struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

// Err converts a failed validation into an *entity.ValidationError
func (v Validation) Err() error {
	if v.IsValid {
		return nil
	}
	return &entity.ValidationError{Errors: v.Errors}
}

// ValidateResponse applies the required rule of every question independently
func ValidateResponse(form entity.FormDefinition, answers entity.Answers) Validation {
	errs := map[string]string{}
	for _, q := range form.Questions {
		if msg, ok := checkQuestion(q, answers[q.ID]); !ok {
			errs[q.ID] = msg
		}
	}
	return Validation{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateQuestion runs the rule of a single question. An unknown id is valid.
func ValidateQuestion(form entity.FormDefinition, questionID string, answers entity.Answers) Validation {
	q, ok := form.Question(questionID)
	if !ok {
		return Validation{IsValid: true, Errors: map[string]string{}}
	}
	return ValidateResponse(entity.FormDefinition{Questions: []entity.Question{q}}, answers)
}

func checkQuestion(q entity.Question, answer entity.Answer) (string, bool) {
	if !q.Required {
		return "", true
	}

	switch q.Type {
	case entity.QuestionText:
		if _, ok := textAnswer(answer); !ok {
			return MsgTextRequired, false
		}
	case entity.QuestionSingleChoice:
		if _, ok := singleAnswer(answer); !ok {
			return MsgChoiceRequired, false
		}
	case entity.QuestionMultiChoice:
		if _, ok := multiAnswer(answer); !ok {
			return MsgMultiRequired, false
		}
	}
	return "", true
}

// textAnswer returns the trimmed text when it is non-empty
func textAnswer(a entity.Answer) (string, bool) {
	v, ok := a.Value()
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// singleAnswer returns the selected label when it is non-empty. Membership in
// the current option list is not checked.
func singleAnswer(a entity.Answer) (string, bool) {
	v, ok := a.Value()
	return v, ok && v != ""
}

func multiAnswer(a entity.Answer) ([]string, bool) {
	v, ok := a.Choices()
	return v, ok && len(v) > 0
}
