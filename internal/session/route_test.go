package session

import (
	"context"
	"testing"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		fragment string
		want     Route
	}{
		{"", Route{Page: PageDashboard}},
		{"#/login", Route{Page: PageLogin}},
		{"#/builder/f1", Route{Page: PageBuilder, FormID: "f1"}},
		{"/answer/f1", Route{Page: PageAnswer, FormID: "f1"}},
		{"answer-complete/f1/extra", Route{Page: PageAnswerComplete, FormID: "f1"}},
		{"#/results/", Route{Page: PageResults}},
		{"#/nowhere/f1", Route{Page: PageDashboard}},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRoute(tt.fragment))
		})
	}
}

func TestRoute_String(t *testing.T) {
	assert.Equal(t, "dashboard", Route{Page: PageDashboard}.String())
	assert.Equal(t, "results/f1", Route{Page: PageResults, FormID: "f1"}.String())
	assert.Equal(t, Route{Page: PageResults, FormID: "f1"}, ParseRoute("#/"+Route{Page: PageResults, FormID: "f1"}.String()))
}

func TestAnswerURL(t *testing.T) {
	assert.Equal(t, "https://forms.example.com/app/#/answer/f1", AnswerURL("https://forms.example.com/app/", "f1"))
	assert.Equal(t, "https://forms.example.com/#/answer/f2", AnswerURL("https://forms.example.com/#/dashboard", "f2"))
}

func TestFilter_Match(t *testing.T) {
	draft := entity.FormDefinition{Title: "Customer Survey", Status: entity.StatusDraft}
	published := entity.FormDefinition{Title: "社内アンケート", Status: entity.StatusPublished}

	tests := []struct {
		name   string
		filter Filter
		form   entity.FormDefinition
		want   bool
	}{
		{"all matches everything", Filter{Status: StatusAll}, draft, true},
		{"status draft", Filter{Status: StatusDraft}, published, false},
		{"status published", Filter{Status: StatusPublished}, published, true},
		{"query ignores case", Filter{Query: "SURVEY", Status: StatusAll}, draft, true},
		{"query and status both apply", Filter{Query: "survey", Status: StatusPublished}, draft, false},
		{"blank query", Filter{Query: "  ", Status: StatusAll}, published, true},
		{"query miss", Filter{Query: "feedback", Status: StatusAll}, draft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.form))
		})
	}
}

func TestController_SetFilter(t *testing.T) {
	ctx := context.Background()
	store := newStore(
		entity.FormDefinition{ID: "f1", OwnerID: "alice", Title: "Customer Survey", Status: entity.StatusDraft},
		entity.FormDefinition{ID: "f2", OwnerID: "alice", Status: entity.StatusDraft},
		entity.FormDefinition{ID: "f3", OwnerID: "bob", Title: "Customer Survey", Status: entity.StatusPublished},
	)
	c := loggedIn(t, store, "alice")

	v := c.View()
	require.Len(t, v.Forms, 3)
	assert.Equal(t, "(untitled form)", v.Forms[2].Title)

	v, err := c.SetFilter("survey", "")
	require.NoError(t, err)
	require.Len(t, v.Forms, 1)
	assert.Equal(t, "f1", v.Forms[0].ID)
	assert.Equal(t, StatusAll, v.Filter.Status)

	v, err = c.SetFilter("", StatusPublished)
	require.NoError(t, err)
	require.Len(t, v.Forms, 1)
	assert.Equal(t, "demo-form", v.Forms[0].ID)

	_, err = c.SetFilter("", "archived")
	assert.ErrorIs(t, err, ErrInvalidFilter)

	// the filter survives reloading the dashboard
	v, err = c.Navigate(ctx, Route{Page: PageDashboard})
	require.NoError(t, err)
	assert.Len(t, v.Forms, 1)
}
