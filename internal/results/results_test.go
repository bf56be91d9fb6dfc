package results

import (
	"fmt"
	"testing"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceForm(required bool) entity.FormDefinition {
	return entity.FormDefinition{
		ID: "form-1",
		Questions: []entity.Question{{
			ID: "q1", Title: "Pick", Required: required, Type: entity.QuestionSingleChoice,
			Options: []entity.QuestionOption{{ID: "o1", Label: "A"}, {ID: "o2", Label: "B"}},
		}},
	}
}

func mixedForm() entity.FormDefinition {
	return entity.FormDefinition{
		ID: "form-2",
		Questions: []entity.Question{
			{ID: "text", Title: "Why", Required: true, Type: entity.QuestionText},
			{
				ID: "single", Title: "One", Required: true, Type: entity.QuestionSingleChoice,
				Options: []entity.QuestionOption{{ID: "a", Label: "A"}},
			},
			{
				ID: "multi", Title: "Many", Required: true, Type: entity.QuestionMultiChoice,
				Options: []entity.QuestionOption{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}},
			},
			{ID: "optional", Title: "Extra", Type: entity.QuestionText},
		},
	}
}

func responses(answers ...entity.Answers) []entity.Response {
	out := make([]entity.Response, len(answers))
	for i, a := range answers {
		out[i] = entity.Response{ID: fmt.Sprintf("r%d", i), Answers: a}
	}
	return out
}

func TestValidateResponse_RequiredSingleChoice(t *testing.T) {
	form := choiceForm(true)

	v := ValidateResponse(form, entity.Answers{})
	assert.False(t, v.IsValid)
	assert.Equal(t, map[string]string{"q1": MsgChoiceRequired}, v.Errors)
	assert.Error(t, v.Err())

	v = ValidateResponse(form, entity.Answers{"q1": entity.Single("A")})
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	assert.NoError(t, v.Err())
}

func TestValidateResponse_Rules(t *testing.T) {
	tests := []struct {
		name    string
		answers entity.Answers
		invalid []string
	}{
		{
			name:    "everything missing",
			answers: entity.Answers{},
			invalid: []string{"text", "single", "multi"},
		},
		{
			name: "all present",
			answers: entity.Answers{
				"text": entity.Text(" ok "), "single": entity.Single("A"), "multi": entity.Multi("X"),
			},
		},
		{
			name: "whitespace text is empty",
			answers: entity.Answers{
				"text": entity.Text(" \n\t"), "single": entity.Single("A"), "multi": entity.Multi("X"),
			},
			invalid: []string{"text"},
		},
		{
			name: "single choice is not checked against options",
			answers: entity.Answers{
				"text": entity.Text("x"), "single": entity.Single("deleted option"), "multi": entity.Multi("X"),
			},
		},
		{
			name: "empty selections",
			answers: entity.Answers{
				"text": entity.Text("x"), "single": entity.Single(""), "multi": entity.Multi(),
			},
			invalid: []string{"single", "multi"},
		},
		{
			name: "wrong shapes count as missing",
			answers: entity.Answers{
				"text": entity.Multi("x"), "single": entity.Multi("A"), "multi": entity.Single("X"),
			},
			invalid: []string{"text", "single", "multi"},
		},
		{
			name: "optional questions are never flagged",
			answers: entity.Answers{
				"text": entity.Text("x"), "single": entity.Single("A"), "multi": entity.Multi("X"),
				"optional": entity.Multi(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateResponse(mixedForm(), tt.answers)

			assert.Equal(t, len(tt.invalid) == 0, v.IsValid)
			assert.Len(t, v.Errors, len(tt.invalid))
			for _, id := range tt.invalid {
				assert.Contains(t, v.Errors, id)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	form := mixedForm()
	answers := entity.Answers{"single": entity.Single("A")}

	assert.True(t, ValidateQuestion(form, "single", answers).IsValid)

	v := ValidateQuestion(form, "text", answers)
	assert.False(t, v.IsValid)
	assert.Equal(t, map[string]string{"text": MsgTextRequired}, v.Errors)

	assert.True(t, ValidateQuestion(form, "missing", answers).IsValid)
}

func TestSummarizeResponses_Empty(t *testing.T) {
	s := SummarizeResponses(mixedForm(), nil)

	assert.Equal(t, 0, s.TotalResponses)
	require.Len(t, s.Questions, 4)
	for _, q := range s.Questions {
		assert.Equal(t, 0, q.AnsweredCount)
		assert.Equal(t, 0, q.UnansweredCount)
	}
}

func TestSummarizeResponses_SingleChoiceCounts(t *testing.T) {
	s := SummarizeResponses(choiceForm(false), responses(
		entity.Answers{"q1": entity.Single("A")},
		entity.Answers{"q1": entity.Single("B")},
	))

	require.Len(t, s.Questions, 1)
	q := s.Questions[0]
	assert.Equal(t, 2, q.AnsweredCount)
	assert.Equal(t, 0, q.UnansweredCount)
	assert.Equal(t, []entity.OptionCount{
		{OptionID: "o1", Label: "A", Count: 1},
		{OptionID: "o2", Label: "B", Count: 1},
	}, q.OptionCounts)
}

func TestSummarizeResponses_StaleAnswers(t *testing.T) {
	s := SummarizeResponses(mixedForm(), responses(
		entity.Answers{"single": entity.Single("gone"), "multi": entity.Multi("X", "gone", "Y")},
		entity.Answers{"removed-question": entity.Text("x"), "multi": entity.Multi()},
		entity.Answers{"single": entity.Single("A"), "multi": entity.Multi("X")},
	))

	single := s.Questions[1]
	assert.Equal(t, 2, single.AnsweredCount, "unmatched labels still count as answered")
	assert.Equal(t, 1, single.UnansweredCount)
	assert.Equal(t, 1, single.OptionCounts[0].Count)

	multi := s.Questions[2]
	assert.Equal(t, 2, multi.AnsweredCount)
	assert.Equal(t, 1, multi.UnansweredCount)
	assert.Equal(t, 2, multi.OptionCounts[0].Count)
	assert.Equal(t, 1, multi.OptionCounts[1].Count)
}

func TestSummarizeResponses_TextSamples(t *testing.T) {
	var list []entity.Answers
	for i := 1; i <= 7; i++ {
		list = append(list, entity.Answers{"text": entity.Text(fmt.Sprintf("  answer %d ", i))})
	}
	list = append(list, entity.Answers{"text": entity.Text("   ")}, entity.Answers{"text": entity.Single("")})

	s := SummarizeResponses(mixedForm(), responses(list...))
	text := s.Questions[0]

	assert.Equal(t, 9, s.TotalResponses)
	assert.Equal(t, 7, text.AnsweredCount)
	assert.Equal(t, 2, text.UnansweredCount)
	assert.Equal(t, []string{"answer 7", "answer 6", "answer 5", "answer 4", "answer 3"}, text.RecentAnswers)
	assert.Nil(t, text.OptionCounts)
}

func TestSummarizeResponses_DuplicateLabelsCountOnFirstOption(t *testing.T) {
	form := choiceForm(false)
	form.Questions[0].Options[1].Label = "A"

	s := SummarizeResponses(form, responses(entity.Answers{"q1": entity.Single("A")}))
	assert.Equal(t, 1, s.Questions[0].OptionCounts[0].Count)
	assert.Equal(t, 0, s.Questions[0].OptionCounts[1].Count)
}
