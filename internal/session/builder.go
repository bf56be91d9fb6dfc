package session

import (
	"context"
	"errors"

	"github.com/Koyo-os/questionnaire-service/internal/editor"
	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"go.uber.org/zap"
)

// EditFunc is one editing engine operation applied to the open draft
type EditFunc func(e *editor.Engine, form entity.FormDefinition) entity.FormDefinition

// CreateForm opens the builder on a new, not yet saved draft
func (c *Controller) CreateForm(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.s.UserID == "" {
		v := c.view(false)
		c.mu.Unlock()
		return v, ErrNotAuthenticated
	}

	form := c.engine.NewForm(c.s.UserID)
	c.s.Draft = &form
	c.s.Unsaved = true
	c.s.Preview = newAnswerState()
	c.editSeq++
	c.mu.Unlock()

	return c.Navigate(ctx, Route{Page: PageBuilder, FormID: form.ID})
}

// Edit applies fn to the draft. Nothing is persisted until Save or Publish.
func (c *Controller) Edit(fn EditFunc) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft, err := c.currentDraft()
	if err != nil {
		return c.view(false), err
	}

	next := fn(c.engine, draft)
	c.s.Draft = &next
	c.s.Unsaved = true
	c.s.Message = ""
	c.s.Preview.prune(draft, next)
	c.editSeq++

	return c.view(false), nil
}

// Save persists the draft with its current status. A published form must
// still pass the publish gate.
func (c *Controller) Save(ctx context.Context) (View, error) {
	c.mu.Lock()
	draft, err := c.currentDraft()
	if err == nil && draft.IsPublished() {
		err = c.checkPublishable(draft)
	}
	if err != nil {
		v := c.view(false)
		c.mu.Unlock()
		return v, err
	}

	return c.persist(ctx, draft, draft.Status, MsgSaved)
}

// Publish saves the draft as published once it passes the publish gate
func (c *Controller) Publish(ctx context.Context) (View, error) {
	return c.saveWithStatus(ctx, entity.StatusPublished, MsgPublished)
}

// Unpublish saves the draft back as a draft, closing it to respondents
func (c *Controller) Unpublish(ctx context.Context) (View, error) {
	return c.saveWithStatus(ctx, entity.StatusDraft, MsgUnpublished)
}

func (c *Controller) saveWithStatus(ctx context.Context, status entity.FormStatus, okMsg string) (View, error) {
	c.mu.Lock()
	draft, err := c.currentDraft()
	if err == nil && status == entity.StatusPublished {
		err = c.checkPublishable(draft)
	}
	if err != nil {
		v := c.view(false)
		c.mu.Unlock()
		return v, err
	}

	next := c.engine.UpdateFormMeta(draft, editor.FormPatch{Status: &status})
	return c.persist(ctx, next, draft.Status, okMsg)
}

// persist stores next as the draft. It is entered with c.mu held and releases
// it around the store call. On failure the draft keeps its edits, goes back to
// prevStatus and stays unsaved so the user can retry.
func (c *Controller) persist(ctx context.Context, next entity.FormDefinition, prevStatus entity.FormStatus, okMsg string) (View, error) {
	c.s.Draft = &next
	userID, seq := c.s.UserID, c.editSeq
	c.mu.Unlock()

	err := c.store.SaveForm(ctx, userID, next)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The user may have opened another form meanwhile
	same := c.s.Draft != nil && c.s.Draft.ID == next.ID

	if err != nil {
		c.logger.Error("error save form",
			zap.String("form_id", next.ID),
			zap.String("status", string(next.Status)),
			zap.Error(err))

		if same {
			restored := *c.s.Draft
			restored.Status = prevStatus
			c.s.Draft = &restored
			c.s.Unsaved = true
			c.s.Message = MsgSaveFailed
			if errors.Is(err, entity.ErrNotFound) {
				c.s.Message = MsgNotFound
			}
		}
		return c.view(false), err
	}

	if same {
		if c.editSeq == seq {
			c.s.Unsaved = false
		}
		c.s.Message = okMsg
		c.s.Warnings = nil
	}
	return c.view(false), nil
}

// checkPublishable records gate warnings on the session. Callers hold c.mu.
func (c *Controller) checkPublishable(form entity.FormDefinition) error {
	warnings := editor.CheckPublishable(form)
	if len(warnings) == 0 {
		return nil
	}

	c.s.Warnings = warnings
	c.s.Message = MsgPublishBlocked
	return &entity.PublishBlockedError{Warnings: append([]string(nil), warnings...)}
}

// currentDraft returns the draft open in the builder. While the builder still
// loads another form the old draft does not count. Callers hold c.mu.
func (c *Controller) currentDraft() (entity.FormDefinition, error) {
	if c.s.Page != PageBuilder || c.s.Draft == nil || c.s.Draft.ID != c.s.FormID {
		return entity.FormDefinition{}, ErrNoDraft
	}
	return *c.s.Draft, nil
}
