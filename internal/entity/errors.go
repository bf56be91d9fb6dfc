package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned for unknown, foreign or unpublished forms
	ErrNotFound = errors.New("form not found")

	// ErrPersistence matches every PersistenceError via errors.Is
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError wraps a storage failure with the operation that hit it
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// ValidationError carries per-question messages of a rejected response
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Errors))
	for id := range e.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "response is invalid for questions: " + strings.Join(ids, ", ")
}

// PublishBlockedError lists what must be fixed before a form can be published
type PublishBlockedError struct {
	Warnings []string
}

func (e *PublishBlockedError) Error() string {
	return "publish blocked: " + strings.Join(e.Warnings, "; ")
}
