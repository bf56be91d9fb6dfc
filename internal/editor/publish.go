package editor

import (
	"fmt"
	"strings"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
)

// MinChoiceOptions is the number of labelled options a choice question needs before publishing
const MinChoiceOptions = 2

// CheckPublishable lists everything that keeps the form from being published.
// An empty result means the form may be published. Questions are named by
// their 1-based position.
func CheckPublishable(form entity.FormDefinition) []string {
	warnings := []string{}

	if isBlank(form.Title) {
		warnings = append(warnings, "form title is required")
	}
	if len(form.Questions) == 0 {
		warnings = append(warnings, "at least one question is required")
	}

	for i, q := range form.Questions {
		pos := i + 1
		if isBlank(q.Title) {
			warnings = append(warnings, fmt.Sprintf("question %d: title is required", pos))
		}
		if q.Type == entity.QuestionText {
			continue
		}

		labelled := 0
		for _, o := range q.Options {
			if !isBlank(o.Label) {
				labelled++
			}
		}
		if labelled < MinChoiceOptions {
			warnings = append(warnings, fmt.Sprintf(
				"question %d: at least %d options with labels are required", pos, MinChoiceOptions))
		}
	}

	return warnings
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
