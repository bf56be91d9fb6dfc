package session

import (
	"maps"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
)

// FormRow is one dashboard entry
type FormRow struct {
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	Status    entity.FormStatus `yaml:"status"`
	Questions int               `yaml:"questions"`
}

// View tells the renderer what to display. It never aliases session state.
type View struct {
	Page       Page   `yaml:"page"`
	Route      string `yaml:"route"`
	Redirected bool   `yaml:"redirected,omitempty"`
	UserID     string `yaml:"user,omitempty"`

	Forms  []FormRow `yaml:"forms,omitempty"`
	Filter *Filter   `yaml:"filter,omitempty"`

	Form    *entity.FormDefinition `yaml:"form,omitempty"`
	Unsaved bool                   `yaml:"unsaved,omitempty"`

	Answers          entity.Answers    `yaml:"answers,omitempty"`
	ValidationErrors map[string]string `yaml:"validation_errors,omitempty"`
	Completed        bool              `yaml:"completed,omitempty"`

	Summary        *entity.ResponseSummary `yaml:"summary,omitempty"`
	ResultsBlocked bool                    `yaml:"results_blocked,omitempty"`

	Warnings []string `yaml:"warnings,omitempty"`
	Message  string   `yaml:"message,omitempty"`
	NotFound bool     `yaml:"not_found,omitempty"`
}

// View returns the current view
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(false)
}

// view renders the session for its current page. Callers hold c.mu.
func (c *Controller) view(redirected bool) View {
	s := &c.s
	v := View{
		Page:       s.Page,
		Route:      Route{Page: s.Page, FormID: s.FormID}.String(),
		Redirected: redirected,
		UserID:     s.UserID,
		Warnings:   append([]string(nil), s.Warnings...),
		Message:    s.Message,
		NotFound:   s.NotFound,
	}

	switch s.Page {
	case PageDashboard:
		filter := s.Filter
		v.Filter = &filter
		v.Forms = filterForms(s.Forms, s.Filter)

	case PageBuilder:
		// nothing to show until the requested form is loaded
		if s.Draft == nil || s.Draft.ID != s.FormID {
			break
		}
		v.Form = cloneForm(s.Draft)
		v.Unsaved = s.Unsaved
		v.Answers = s.Preview.Answers.Clone()
		v.ValidationErrors = maps.Clone(s.Preview.Errors)

	case PageAnswer, PageAnswerComplete:
		v.Form = cloneForm(s.AnswerForm)
		v.Answers = s.Answer.Answers.Clone()
		v.ValidationErrors = maps.Clone(s.Answer.Errors)
		v.Completed = s.Completed

	case PageResults:
		v.Form = cloneForm(s.ResultsForm)
		v.ResultsBlocked = s.ResultsBlocked
		v.Summary = cloneSummary(s.Summary)
	}

	return v
}

func cloneSummary(summary *entity.ResponseSummary) *entity.ResponseSummary {
	if summary == nil {
		return nil
	}
	clone := summary.Clone()
	return &clone
}

func cloneForm(form *entity.FormDefinition) *entity.FormDefinition {
	if form == nil {
		return nil
	}
	clone := form.Clone()
	return &clone
}
