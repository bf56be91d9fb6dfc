// Package session owns the per-user application state: which page is shown,
// the form being edited, the answer in progress and the loaded results. A
// Controller is the only writer of that state; every user intent goes through
// one of its methods and returns the View to render.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Koyo-os/questionnaire-service/internal/editor"
	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/internal/results"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"go.uber.org/zap"
)

// Controller drives one session. Store calls run without holding the lock so
// a slow load never blocks a newer intent; results of loads that finish after
// a newer navigation are discarded.
type Controller struct {
	store   Store
	engine  *editor.Engine
	logger  *logger.Logger
	baseURL string

	mu        sync.Mutex
	s         Session
	gen       uint64 // bumped on every page change
	answerSeq uint64 // bumped whenever the answer session is reset
	editSeq   uint64 // bumped on every draft change
}

func Init(store Store, engine *editor.Engine, logger *logger.Logger, baseURL string) *Controller {
	return &Controller{
		store:   store,
		engine:  engine,
		logger:  logger,
		baseURL: baseURL,
		s:       newSession(),
	}
}

// Start shows the initial page: login when anonymous, else the dashboard
func (c *Controller) Start(ctx context.Context) (View, error) {
	c.mu.Lock()
	page := PageLogin
	if c.s.UserID != "" {
		page = PageDashboard
	}
	c.mu.Unlock()

	return c.Navigate(ctx, Route{Page: page})
}

// Login accepts any non-blank identifier and opens the dashboard
func (c *Controller) Login(ctx context.Context, userID string) (View, error) {
	id := strings.TrimSpace(userID)

	c.mu.Lock()
	if id == "" {
		c.s.Message = MsgInvalidIdentity
		v := c.view(false)
		c.mu.Unlock()
		return v, ErrInvalidIdentity
	}
	c.s.UserID = id
	c.mu.Unlock()

	c.logger.Info("user logged in", zap.String("user_id", id))
	return c.Navigate(ctx, Route{Page: PageDashboard})
}

// Logout drops the whole session, including unsaved drafts and answers
func (c *Controller) Logout(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.answerSeq++
	c.editSeq++
	c.s = newSession()
	return c.view(false), nil
}

// AnswerURL is the respondent link for formID under the configured base URL
func (c *Controller) AnswerURL(formID string) string {
	return AnswerURL(c.baseURL, formID)
}

// Navigate moves to the requested route after applying the access rules and
// loads whatever the target page needs.
func (c *Controller) Navigate(ctx context.Context, requested Route) (View, error) {
	c.mu.Lock()
	route, redirected := c.resolve(requested)
	c.enter(route)
	gen, userID := c.gen, c.s.UserID

	reuseDraft := route.Page == PageBuilder &&
		c.s.Draft != nil && c.s.Draft.ID == route.FormID && c.s.Unsaved
	reuseAnswer := route.Page == PageAnswerComplete && c.s.AnswerForm != nil
	c.mu.Unlock()

	c.logger.Debug("navigate",
		zap.String("requested", requested.String()),
		zap.String("route", route.String()))

	var err error
	switch route.Page {
	case PageDashboard:
		err = c.loadDashboard(ctx, gen, userID)
	case PageBuilder:
		if !reuseDraft {
			err = c.loadDraft(ctx, gen, userID, route.FormID)
		}
	case PageAnswer, PageAnswerComplete:
		if !reuseAnswer {
			err = c.loadAnswerForm(ctx, gen, route.FormID)
		}
	case PageResults:
		err = c.loadResults(ctx, gen, userID, route.FormID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(redirected), err
}

// resolve applies the transition rules. Callers hold c.mu.
func (c *Controller) resolve(r Route) (Route, bool) {
	next := r
	if !next.Page.Valid() {
		next = Route{Page: PageDashboard}
	}

	if !next.Page.needsForm() {
		next.FormID = ""
	} else if next.FormID == "" {
		next = Route{Page: PageDashboard}
	}

	authenticated := c.s.UserID != ""
	switch {
	case !authenticated && !next.Page.public():
		next = Route{Page: PageLogin}
	case authenticated && next.Page == PageLogin:
		next = Route{Page: PageDashboard}
	}

	// The completion page is only reachable after submitting in this answer session
	if next.Page == PageAnswerComplete && (next.FormID != c.s.AnswerFormID || !c.s.Completed) {
		next.Page = PageAnswer
	}

	return next, next != r
}

// enter switches the session to route. Callers hold c.mu.
func (c *Controller) enter(route Route) {
	c.gen++
	c.s.Page, c.s.FormID = route.Page, route.FormID
	c.s.Message, c.s.Warnings, c.s.NotFound = "", nil, false

	if (route.Page == PageAnswer || route.Page == PageAnswerComplete) && route.FormID != c.s.AnswerFormID {
		c.resetAnswer(route.FormID)
	}
}

// resetAnswer starts a new answer session. Callers hold c.mu.
func (c *Controller) resetAnswer(formID string) {
	c.answerSeq++
	c.s.resetAnswer(formID)
}

func (c *Controller) loadDashboard(ctx context.Context, gen uint64, userID string) error {
	forms, err := c.store.GetForms(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	if err != nil {
		c.recordLoadError(err, "")
		return err
	}

	c.s.Forms = forms
	return nil
}

func (c *Controller) loadDraft(ctx context.Context, gen uint64, userID, formID string) error {
	form, err := c.store.GetForm(ctx, userID, formID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}

	c.editSeq++
	c.s.Unsaved = false
	c.s.Preview = newAnswerState()
	if err != nil {
		c.s.Draft = nil
		c.recordLoadError(err, formID)
		return err
	}

	c.s.Draft = &form
	return nil
}

func (c *Controller) loadAnswerForm(ctx context.Context, gen uint64, formID string) error {
	form, err := c.store.GetPublicForm(ctx, formID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	if err != nil {
		c.s.AnswerForm = nil
		c.recordLoadError(err, formID)
		return err
	}

	prev := form
	if c.s.AnswerForm != nil {
		prev = *c.s.AnswerForm
	}
	c.s.Answer.prune(prev, form)
	c.s.AnswerForm = &form
	return nil
}

func (c *Controller) loadResults(ctx context.Context, gen uint64, userID, formID string) error {
	form, err := c.store.GetForm(ctx, userID, formID)

	var responses []entity.Response
	if err == nil && form.IsPublished() {
		responses, err = c.store.GetResponses(ctx, userID, formID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}

	c.s.ResultsForm, c.s.Summary, c.s.ResultsBlocked = nil, nil, false
	if err != nil {
		c.recordLoadError(err, formID)
		return err
	}

	c.s.ResultsForm = &form
	if !form.IsPublished() {
		c.s.ResultsBlocked = true
		c.s.Message = MsgResultsBlocked
		return nil
	}

	summary := results.SummarizeResponses(form, responses)
	c.s.Summary = &summary
	return nil
}

// recordLoadError turns a store failure into session feedback. Callers hold c.mu.
func (c *Controller) recordLoadError(err error, formID string) {
	if errors.Is(err, entity.ErrNotFound) {
		c.s.NotFound = true
		c.s.Message = MsgNotFound
		return
	}

	c.s.Message = MsgLoadFailed
	c.logger.Warn("error load page data",
		zap.String("page", string(c.s.Page)),
		zap.String("form_id", formID),
		zap.Error(err))
}
