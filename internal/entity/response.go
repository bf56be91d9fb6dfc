package entity

import (
	"encoding/json"
	"errors"
	"time"
)

// AnswerKind tags the payload carried by an Answer
type AnswerKind uint8

const (
	AnswerNone AnswerKind = iota
	AnswerText
	AnswerSingle
	AnswerMulti
)

// Answer is one respondent value for one question. It is a tagged union:
// Text and Single carry a string, Multi carries a list of option labels.
// The zero value is an absent answer.
type Answer struct {
	kind    AnswerKind
	value   string
	choices []string
}

// Text builds a free-text answer
func Text(value string) Answer {
	return Answer{kind: AnswerText, value: value}
}

// Single builds a single-choice answer holding the selected option label
func Single(label string) Answer {
	return Answer{kind: AnswerSingle, value: label}
}

// Multi builds a multi-choice answer holding the selected option labels
func Multi(labels ...string) Answer {
	choices := make([]string, len(labels))
	copy(choices, labels)
	return Answer{kind: AnswerMulti, choices: choices}
}

func (a Answer) Kind() AnswerKind { return a.kind }

// Value returns the string payload. ok is false for Multi and absent answers.
func (a Answer) Value() (value string, ok bool) {
	if a.kind == AnswerText || a.kind == AnswerSingle {
		return a.value, true
	}
	return "", false
}

// Choices returns a copy of the list payload. ok is false unless the answer is Multi.
func (a Answer) Choices() (choices []string, ok bool) {
	if a.kind != AnswerMulti {
		return nil, false
	}
	out := make([]string, len(a.choices))
	copy(out, a.choices)
	return out, true
}

// Has reports whether a Multi answer contains label
func (a Answer) Has(label string) bool {
	for _, c := range a.choices {
		if c == label {
			return true
		}
	}
	return false
}

// Toggle returns a Multi answer with label added or removed. Non-multi answers
// are treated as empty.
func (a Answer) Toggle(label string, selected bool) Answer {
	current := a.choices
	if a.kind != AnswerMulti {
		current = nil
	}

	next := make([]string, 0, len(current)+1)
	for _, c := range current {
		if c != label {
			next = append(next, c)
		}
	}
	if selected {
		next = append(next, label)
	}
	return Answer{kind: AnswerMulti, choices: next}
}

type answerJSON struct {
	Text   *string  `json:"text,omitempty"`
	Single *string  `json:"single,omitempty"`
	Multi  []string `json:"multi,omitempty"`
}

// MarshalJSON encodes the answer as a single-key object naming its kind
func (a Answer) MarshalJSON() ([]byte, error) {
	var out answerJSON
	switch a.kind {
	case AnswerText:
		out.Text = &a.value
	case AnswerSingle:
		out.Single = &a.value
	case AnswerMulti:
		choices := a.choices
		if choices == nil {
			choices = []string{}
		}
		return json.Marshal(struct {
			Multi []string `json:"multi"`
		}{choices})
	default:
		return []byte("null"), nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the tagged object form as well as a bare string
// (decoded as Text) or a bare array (decoded as Multi).
func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Answer{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Text(s)
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*a = Multi(list...)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return errors.New("answer must carry exactly one of text, single, multi")
	}

	var tagged answerJSON
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}

	switch {
	case tagged.Text != nil:
		*a = Text(*tagged.Text)
	case tagged.Single != nil:
		*a = Single(*tagged.Single)
	case raw["multi"] != nil:
		*a = Multi(tagged.Multi...)
	default:
		return errors.New("unknown answer kind")
	}
	return nil
}

// MarshalYAML renders the answer as its plain payload
func (a Answer) MarshalYAML() (any, error) {
	switch a.kind {
	case AnswerText, AnswerSingle:
		return a.value, nil
	case AnswerMulti:
		return a.choices, nil
	}
	return nil, nil
}

// Answers maps question ids to answers
type Answers map[string]Answer

// Clone copies the mapping and the list payloads
func (a Answers) Clone() Answers {
	if a == nil {
		return nil
	}
	out := make(Answers, len(a))
	for k, v := range a {
		if v.kind == AnswerMulti {
			v = Multi(v.choices...)
		}
		out[k] = v
	}
	return out
}

// Response is one submitted answer set. It is never modified after creation.
type Response struct {
	ID          string    `json:"id"`
	FormID      string    `json:"formId"`
	SubmittedAt time.Time `json:"submittedAt"`
	Answers     Answers   `json:"answers"`
}

// Clone returns a deep copy of the response
func (r Response) Clone() Response {
	out := r
	out.Answers = r.Answers.Clone()
	return out
}

// CloneResponses deep-copies a list of responses
func CloneResponses(responses []Response) []Response {
	if responses == nil {
		return nil
	}
	out := make([]Response, len(responses))
	for i, r := range responses {
		out[i] = r.Clone()
	}
	return out
}
