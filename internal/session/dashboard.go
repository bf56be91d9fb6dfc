package session

import (
	"strings"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"golang.org/x/text/cases"
)

// StatusFilter narrows the dashboard list by form status
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusDraft     StatusFilter = "draft"
	StatusPublished StatusFilter = "published"
)

func (s StatusFilter) Valid() bool {
	return s == StatusAll || s == StatusDraft || s == StatusPublished
}

// Filter is presentational dashboard state. It is never persisted.
type Filter struct {
	Query  string       `yaml:"query,omitempty"`
	Status StatusFilter `yaml:"status"`
}

// Match applies the status filter and a case-insensitive title substring match
func (f Filter) Match(form entity.FormDefinition) bool {
	switch f.Status {
	case StatusDraft:
		if form.Status != entity.StatusDraft {
			return false
		}
	case StatusPublished:
		if form.Status != entity.StatusPublished {
			return false
		}
	}

	query := strings.TrimSpace(f.Query)
	if query == "" {
		return true
	}

	fold := cases.Fold()
	return strings.Contains(fold.String(form.Title), fold.String(query))
}

// SetFilter updates the dashboard filter. An empty status means all.
func (c *Controller) SetFilter(query string, status StatusFilter) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if status == "" {
		status = StatusAll
	}
	if !status.Valid() {
		return c.view(false), ErrInvalidFilter
	}

	c.s.Filter = Filter{Query: query, Status: status}
	return c.view(false), nil
}

func filterForms(forms []entity.FormDefinition, f Filter) []FormRow {
	rows := make([]FormRow, 0, len(forms))
	for _, form := range forms {
		if !f.Match(form) {
			continue
		}
		rows = append(rows, FormRow{
			ID:        form.ID,
			Title:     form.DisplayTitle(),
			Status:    form.Status,
			Questions: len(form.Questions),
		})
	}
	return rows
}
