// Package editor applies structural edits to forms. Every operation returns a
// new FormDefinition and leaves its input untouched. Operations addressing an
// unknown question or option id return a copy equal to the input.
package editor

import (
	"fmt"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/google/uuid"
)

type (
	// IDGenerator returns a fresh identifier on every call
	IDGenerator func() string

	// Labels holds the placeholder texts used for new questions and options
	Labels struct {
		QuestionTitle string
		OptionFormat  string // formatted with the 1-based option count
	}

	// Engine is the stateless edit engine. Its only dependency is the id source.
	Engine struct {
		newID  IDGenerator
		labels Labels
	}

	Option func(*Engine)

	// FormPatch is merged into a form by UpdateFormMeta; nil fields are kept
	FormPatch struct {
		Title       *string
		Description *string
		Status      *entity.FormStatus
	}

	// QuestionPatch is merged into a question by UpdateQuestion; nil fields are kept
	QuestionPatch struct {
		Title    *string
		Required *bool
	}
)

// DefaultLabels are the placeholders shown in the builder
var DefaultLabels = Labels{
	QuestionTitle: "新しい質問",
	OptionFormat:  "選択肢%d",
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

func WithLabels(labels Labels) Option {
	return func(e *Engine) {
		e.labels = labels
	}
}

// New creates an Engine generating UUIDs
func New(opts ...Option) *Engine {
	e := &Engine{
		newID:  uuid.NewString,
		labels: DefaultLabels,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewForm returns an empty draft owned by ownerID
func (e *Engine) NewForm(ownerID string) entity.FormDefinition {
	return entity.FormDefinition{
		ID:        e.newID(),
		OwnerID:   ownerID,
		Status:    entity.StatusDraft,
		Questions: []entity.Question{},
	}
}

func (e *Engine) UpdateFormMeta(form entity.FormDefinition, patch FormPatch) entity.FormDefinition {
	out := form.Clone()
	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.Status != nil {
		out.Status = *patch.Status
	}
	return out
}

// AddQuestion appends a new question. An empty or unknown type means single choice.
func (e *Engine) AddQuestion(form entity.FormDefinition, qtype entity.QuestionType) entity.FormDefinition {
	out := form.Clone()
	out.Questions = append(out.Questions, e.newQuestion(qtype))
	return out
}

// InsertQuestionAfter places a new question right after afterID, or at the end
// when afterID is unknown.
func (e *Engine) InsertQuestionAfter(form entity.FormDefinition, afterID string, qtype entity.QuestionType) entity.FormDefinition {
	idx := indexOfQuestion(form.Questions, afterID)
	if idx < 0 {
		return e.AddQuestion(form, qtype)
	}

	out := form.Clone()
	questions := make([]entity.Question, 0, len(out.Questions)+1)
	questions = append(questions, out.Questions[:idx+1]...)
	questions = append(questions, e.newQuestion(qtype))
	questions = append(questions, out.Questions[idx+1:]...)
	out.Questions = questions
	return out
}

func (e *Engine) RemoveQuestion(form entity.FormDefinition, questionID string) entity.FormDefinition {
	out := form.Clone()
	if indexOfQuestion(out.Questions, questionID) < 0 {
		return out
	}

	kept := make([]entity.Question, 0, len(out.Questions)-1)
	for _, q := range out.Questions {
		if q.ID != questionID {
			kept = append(kept, q)
		}
	}
	out.Questions = kept
	return out
}

// MoveQuestion shifts a question by delta positions, clamped to the list bounds
func (e *Engine) MoveQuestion(form entity.FormDefinition, questionID string, delta int) entity.FormDefinition {
	out := form.Clone()
	from := indexOfQuestion(out.Questions, questionID)
	if from < 0 || delta == 0 {
		return out
	}

	to := min(max(from+delta, 0), len(out.Questions)-1)
	moved := out.Questions[from]
	if to > from {
		copy(out.Questions[from:to], out.Questions[from+1:to+1])
	} else {
		copy(out.Questions[to+1:from+1], out.Questions[to:from])
	}
	out.Questions[to] = moved
	return out
}

func (e *Engine) UpdateQuestion(form entity.FormDefinition, questionID string, patch QuestionPatch) entity.FormDefinition {
	return e.mapQuestion(form, questionID, func(q entity.Question) entity.Question {
		if patch.Title != nil {
			q.Title = *patch.Title
		}
		if patch.Required != nil {
			q.Required = *patch.Required
		}
		return q
	})
}

// ChangeQuestionType switches the answer type. Switching to text drops the
// options; switching to a choice type keeps existing options and only seeds
// two defaults when there are none.
func (e *Engine) ChangeQuestionType(form entity.FormDefinition, questionID string, next entity.QuestionType) entity.FormDefinition {
	if !next.Valid() {
		return form.Clone()
	}

	return e.mapQuestion(form, questionID, func(q entity.Question) entity.Question {
		q.Type = next
		if next == entity.QuestionText {
			q.Options = nil
			return q
		}
		if len(q.Options) == 0 {
			q.Options = e.defaultOptions()
		}
		return q
	})
}

// AddOption appends an option labelled with the option count after insertion
func (e *Engine) AddOption(form entity.FormDefinition, questionID string) entity.FormDefinition {
	return e.mapQuestion(form, questionID, func(q entity.Question) entity.Question {
		if q.Type == entity.QuestionText {
			return q
		}
		q.Options = append(q.Options, entity.QuestionOption{
			ID:    e.newID(),
			Label: e.optionLabel(len(q.Options) + 1),
		})
		return q
	})
}

func (e *Engine) UpdateOption(form entity.FormDefinition, questionID, optionID, label string) entity.FormDefinition {
	return e.mapQuestion(form, questionID, func(q entity.Question) entity.Question {
		for i := range q.Options {
			if q.Options[i].ID == optionID {
				q.Options[i].Label = label
			}
		}
		return q
	})
}

func (e *Engine) RemoveOption(form entity.FormDefinition, questionID, optionID string) entity.FormDefinition {
	return e.mapQuestion(form, questionID, func(q entity.Question) entity.Question {
		if q.Options == nil {
			return q
		}
		kept := make([]entity.QuestionOption, 0, len(q.Options))
		for _, o := range q.Options {
			if o.ID != optionID {
				kept = append(kept, o)
			}
		}
		if len(kept) != len(q.Options) {
			q.Options = kept
		}
		return q
	})
}

// mapQuestion applies fn to a private copy of the matching question
func (e *Engine) mapQuestion(form entity.FormDefinition, questionID string, fn func(entity.Question) entity.Question) entity.FormDefinition {
	out := form.Clone()
	for i := range out.Questions {
		if out.Questions[i].ID == questionID {
			out.Questions[i] = fn(out.Questions[i])
		}
	}
	return out
}

func (e *Engine) newQuestion(qtype entity.QuestionType) entity.Question {
	if !qtype.Valid() {
		qtype = entity.QuestionSingleChoice
	}

	q := entity.Question{
		ID:       e.newID(),
		Title:    e.labels.QuestionTitle,
		Required: false,
		Type:     qtype,
	}
	if qtype != entity.QuestionText {
		q.Options = e.defaultOptions()
	}
	return q
}

func (e *Engine) defaultOptions() []entity.QuestionOption {
	return []entity.QuestionOption{
		{ID: e.newID(), Label: e.optionLabel(1)},
		{ID: e.newID(), Label: e.optionLabel(2)},
	}
}

func (e *Engine) optionLabel(n int) string {
	return fmt.Sprintf(e.labels.OptionFormat, n)
}

func indexOfQuestion(questions []entity.Question, id string) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
