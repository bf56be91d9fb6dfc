// Package entity defines the core data structures used throughout the application
package entity

import "strings"

type (
	// QuestionType is the answer shape a question expects
	QuestionType string

	// FormStatus is the lifecycle state of a form
	FormStatus string
)

const (
	QuestionSingleChoice QuestionType = "singleChoice"
	QuestionMultiChoice  QuestionType = "multiChoice"
	QuestionText         QuestionType = "text"

	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
)

// Valid reports whether t is one of the known question types
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionText:
		return true
	}
	return false
}

// IsChoice reports whether questions of this type carry options
func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultiChoice
}

// Valid reports whether s is a known form status
func (s FormStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type (
	// QuestionOption is one selectable choice of a choice question
	QuestionOption struct {
		ID    string `json:"id" yaml:"id"`
		Label string `json:"label" yaml:"label"`
	}

	// Question represents a single question within a form
	Question struct {
		ID       string           `json:"id" yaml:"id"`
		Title    string           `json:"title" yaml:"title"`
		Required bool             `json:"required" yaml:"required"`
		Type     QuestionType     `json:"type" yaml:"type"`
		Options  []QuestionOption `json:"options,omitempty" yaml:"options,omitempty"` // nil for text questions
	}

	// FormDefinition represents a questionnaire owned by a single user
	FormDefinition struct {
		ID          string     `json:"id" yaml:"id"`
		OwnerID     string     `json:"ownerId" yaml:"owner_id"`
		Title       string     `json:"title" yaml:"title"`
		Description string     `json:"description" yaml:"description"`
		Status      FormStatus `json:"status" yaml:"status"`
		Questions   []Question `json:"questions" yaml:"questions"`
	}
)

// Clone returns a deep copy of the form. nil slices stay nil.
func (f FormDefinition) Clone() FormDefinition {
	out := f
	if f.Questions != nil {
		out.Questions = make([]Question, len(f.Questions))
		for i, q := range f.Questions {
			out.Questions[i] = q.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the question
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = make([]QuestionOption, len(q.Options))
		copy(out.Options, q.Options)
	}
	return out
}

// IsPublished reports whether the form accepts responses
func (f FormDefinition) IsPublished() bool {
	return f.Status == StatusPublished
}

// Question looks a question up by id
func (f FormDefinition) Question(id string) (Question, bool) {
	for _, q := range f.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// DisplayTitle returns the title, or a placeholder for untitled forms
func (f FormDefinition) DisplayTitle() string {
	if strings.TrimSpace(f.Title) == "" {
		return "(untitled form)"
	}
	return f.Title
}

// CloneForms deep-copies a list of forms
func CloneForms(forms []FormDefinition) []FormDefinition {
	if forms == nil {
		return nil
	}
	out := make([]FormDefinition, len(forms))
	for i, f := range forms {
		out[i] = f.Clone()
	}
	return out
}
