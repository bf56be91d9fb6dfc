package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/editor"
	"github.com/Koyo-os/questionnaire-service/internal/repository"
	"github.com/Koyo-os/questionnaire-service/internal/service"
	"github.com/Koyo-os/questionnaire-service/internal/session"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type document struct {
	Page     string           `yaml:"page"`
	Route    string           `yaml:"route"`
	Message  string           `yaml:"message"`
	Error    string           `yaml:"error"`
	URL      string           `yaml:"url"`
	Unsaved  bool             `yaml:"unsaved"`
	Warnings []string         `yaml:"warnings"`
	Forms    []map[string]any `yaml:"forms"`
	Answers  map[string]any   `yaml:"answers"`
	Form     *struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		Status    string `yaml:"status"`
		Questions []struct {
			ID       string `yaml:"id"`
			Title    string `yaml:"title"`
			Required bool   `yaml:"required"`
			Type     string `yaml:"type"`
			Options  []struct {
				ID    string `yaml:"id"`
				Label string `yaml:"label"`
			} `yaml:"options"`
		} `yaml:"questions"`
	} `yaml:"form"`
	Summary *struct {
		TotalResponses int `yaml:"total_responses"`
	} `yaml:"summary"`
}

func newConsole() *Console {
	store := service.Init(nil, repository.NewMemory(repository.DemoForm("alice")), nil, logger.NewNop(), time.Second)
	n := 0
	engine := editor.New(editor.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}))
	return Init(session.Init(store, engine, logger.NewNop(), "http://localhost:8080/"), logger.NewNop())
}

func run(t *testing.T, c *Console, script ...string) []document {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, c.Run(context.Background(), strings.NewReader(strings.Join(script, "\n")), &out))

	var docs []document
	dec := yaml.NewDecoder(&out)
	for {
		var d document
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		docs = append(docs, d)
	}
	return docs
}

func TestConsole_BuildAndPublish(t *testing.T) {
	docs := run(t, newConsole(),
		"login alice",
		"new",
		"title Team lunch",
		"add singleChoice",
		"qtitle id2 Where shall we eat?",
		"opt-set id2 id3 Ramen shop",
		"publish",
		"required id2 on",
		"save",
	)

	require.Len(t, docs, 10)
	assert.Equal(t, "login", docs[0].Page)
	assert.Equal(t, "dashboard", docs[1].Page)

	built := docs[5]
	require.NotNil(t, built.Form)
	assert.Equal(t, "Team lunch", built.Form.Title)
	require.Len(t, built.Form.Questions, 1)
	assert.Equal(t, "Where shall we eat?", built.Form.Questions[0].Title)

	options := docs[6].Form.Questions[0].Options
	require.Len(t, options, 2)
	assert.Equal(t, "Ramen shop", options[0].Label)
	assert.True(t, docs[6].Unsaved)

	assert.Empty(t, docs[7].Error)
	assert.Equal(t, session.MsgPublished, docs[7].Message)
	assert.Equal(t, "published", docs[7].Form.Status)

	assert.True(t, docs[8].Form.Questions[0].Required)
	assert.Equal(t, session.MsgSaved, docs[9].Message)
	assert.False(t, docs[9].Unsaved)
}

func TestConsole_AnswerFlow(t *testing.T) {
	docs := run(t, newConsole(),
		"go #/answer/demo-form",
		"submit",
		"pick q1 とても満足",
		"toggle q2 操作性",
		"toggle q2 デザイン",
		"toggle q2 操作性",
		"text q3 もっと速く",
		"submit",
		"login alice",
		"go results/demo-form",
	)

	require.Len(t, docs, 11)
	assert.Equal(t, "answer", docs[1].Page)
	assert.Contains(t, docs[2].Error, "q1")

	assert.Equal(t, []any{"デザイン"}, docs[6].Answers["q2"])
	assert.Equal(t, "もっと速く", docs[7].Answers["q3"])

	assert.Equal(t, "answer-complete", docs[8].Page)
	assert.Equal(t, session.MsgSubmitted, docs[8].Message)

	require.NotNil(t, docs[10].Summary)
	assert.Equal(t, 1, docs[10].Summary.TotalResponses)
}

func TestConsole_Errors(t *testing.T) {
	docs := run(t, newConsole(),
		"",
		"# comment",
		"fly away",
		"login",
		"login alice",
		"filter archived",
		"rm q1",
		"new",
		"move q1 up",
		"add essay",
		"type",
		"url demo-form",
		"quit",
		"show",
	)

	require.Len(t, docs, 11)
	assert.Contains(t, docs[1].Error, "unknown command")
	assert.Equal(t, session.ErrInvalidIdentity.Error(), docs[2].Error)
	assert.Equal(t, session.ErrInvalidFilter.Error(), docs[4].Error)
	assert.Equal(t, session.ErrNoDraft.Error(), docs[5].Error)
	assert.Contains(t, docs[7].Error, "delta must be an integer")
	assert.NotNil(t, docs[7].Form)
	assert.Contains(t, docs[8].Error, "unknown question type")
	assert.Contains(t, docs[9].Error, "type <questionID>")
	assert.Equal(t, "http://localhost:8080/#/answer/demo-form", docs[10].URL)
	assert.Equal(t, "builder", docs[10].Page)
}

func TestConsole_Help(t *testing.T) {
	var out bytes.Buffer
	err := newConsole().Run(context.Background(), strings.NewReader("help\n"), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "# commands:")
	assert.Contains(t, out.String(), "#   opt-set <questionID> <optionID> <label>")
}

func TestConsole_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() { done <- newConsole().Run(ctx, pr, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("console did not stop")
	}
}

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"q1", "o1", "Two words"}, splitArgs(" q1  o1 Two words ", 3))
	assert.Equal(t, []string{"q1"}, splitArgs("q1", 3))
	assert.Equal(t, []string{"all of it"}, splitArgs("all of it", 1))
	assert.Nil(t, splitArgs("", 2))
}
