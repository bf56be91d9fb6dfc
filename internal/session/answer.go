package session

import (
	"context"
	"errors"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/internal/results"
	"go.uber.org/zap"
)

// SetText records a free-text answer
func (c *Controller) SetText(questionID, value string) (View, error) {
	return c.answer(questionID, func(entity.Answer) entity.Answer {
		return entity.Text(value)
	})
}

// SelectOption records the chosen label of a single-choice question
func (c *Controller) SelectOption(questionID, label string) (View, error) {
	return c.answer(questionID, func(entity.Answer) entity.Answer {
		return entity.Single(label)
	})
}

// ToggleOption adds or removes a label of a multi-choice answer
func (c *Controller) ToggleOption(questionID, label string, selected bool) (View, error) {
	return c.answer(questionID, func(current entity.Answer) entity.Answer {
		return current.Toggle(label, selected)
	})
}

// CheckAnswer validates a single question, as done when a field loses focus
func (c *Controller) CheckAnswer(questionID string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	form, state, err := c.answerTarget()
	if err != nil {
		return c.view(false), err
	}

	validation := results.ValidateQuestion(form, questionID, state.Answers)
	if msg, failed := validation.Errors[questionID]; failed {
		state.Errors[questionID] = msg
	} else {
		delete(state.Errors, questionID)
	}
	return c.view(false), validation.Err()
}

// Submit validates the answer session and sends it to the store. A session
// submits at most once; RestartAnswer opens a new one.
func (c *Controller) Submit(ctx context.Context) (View, error) {
	c.mu.Lock()
	onAnswer := c.s.Page == PageAnswer || c.s.Page == PageAnswerComplete
	if !onAnswer || c.s.AnswerForm == nil {
		v := c.view(false)
		c.mu.Unlock()
		return v, ErrNoAnswerForm
	}
	if err := c.answerBlocked(); err != nil {
		v := c.view(false)
		c.mu.Unlock()
		return v, err
	}

	form := *c.s.AnswerForm
	validation := results.ValidateResponse(form, c.s.Answer.Answers)
	if !validation.IsValid {
		c.s.Answer.Errors = validation.Errors
		c.s.Message = MsgValidationFailed
		v := c.view(false)
		c.mu.Unlock()
		return v, validation.Err()
	}

	c.s.Submitting = true
	c.s.Message = ""
	answers := c.s.Answer.Answers.Clone()
	seq := c.answerSeq
	c.mu.Unlock()

	resp, err := c.store.SubmitResponse(ctx, form.ID, answers)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The answer session was reset while the submission was in flight
	if seq != c.answerSeq {
		if err == nil {
			c.logger.Info("response stored for a closed answer session",
				zap.String("form_id", form.ID),
				zap.String("response_id", resp.ID))
		}
		return c.view(false), ErrSuperseded
	}

	c.s.Submitting = false
	if err != nil {
		var verr *entity.ValidationError
		switch {
		case errors.As(err, &verr):
			c.s.Answer.Errors = verr.Errors
			c.s.Message = MsgValidationFailed
		case errors.Is(err, entity.ErrNotFound):
			c.s.NotFound = true
			c.s.Message = MsgNotFound
		default:
			c.s.Message = MsgSubmitFailed
		}
		c.logger.Warn("error submit response",
			zap.String("form_id", form.ID),
			zap.Error(err))
		return c.view(false), err
	}

	c.s.Completed = true
	c.s.Answer = newAnswerState()
	c.s.Message = MsgSubmitted
	c.gen++
	c.s.Page = PageAnswerComplete

	return c.view(false), nil
}

// RestartAnswer opens a fresh answer session for the same form
func (c *Controller) RestartAnswer() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.AnswerForm == nil {
		return c.view(false), ErrNoAnswerForm
	}
	if c.s.Submitting {
		return c.view(false), ErrSubmissionInProgress
	}

	form := c.s.AnswerForm
	c.resetAnswer(form.ID)
	c.s.AnswerForm = form
	c.gen++
	c.s.Page, c.s.FormID = PageAnswer, form.ID
	c.s.Message, c.s.Warnings, c.s.NotFound = "", nil, false

	return c.view(false), nil
}

func (c *Controller) answer(questionID string, fn func(current entity.Answer) entity.Answer) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	form, state, err := c.answerTarget()
	if err != nil {
		return c.view(false), err
	}

	// Unknown question ids are ignored like unknown ids in the editor
	if _, ok := form.Question(questionID); ok {
		state.set(questionID, fn(state.Answers[questionID]))
	}
	return c.view(false), nil
}

// answerTarget returns the form and answers the answer intents act on: the
// answer session on the answer page, the preview in the builder. Callers hold c.mu.
func (c *Controller) answerTarget() (entity.FormDefinition, *AnswerState, error) {
	switch c.s.Page {
	case PageAnswer, PageAnswerComplete:
		if c.s.AnswerForm == nil {
			return entity.FormDefinition{}, nil, ErrNoAnswerForm
		}
		if err := c.answerBlocked(); err != nil {
			return entity.FormDefinition{}, nil, err
		}
		return *c.s.AnswerForm, &c.s.Answer, nil

	case PageBuilder:
		draft, err := c.currentDraft()
		if err != nil {
			return entity.FormDefinition{}, nil, err
		}
		return draft, &c.s.Preview, nil
	}

	return entity.FormDefinition{}, nil, ErrNoAnswerForm
}

func (c *Controller) answerBlocked() error {
	switch {
	case c.s.Completed:
		return ErrAlreadySubmitted
	case c.s.Submitting:
		return ErrSubmissionInProgress
	}
	return nil
}
