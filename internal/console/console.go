// Package console drives a session controller from a line based command
// stream and prints every resulting view as a YAML document.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Koyo-os/questionnaire-service/internal/editor"
	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/internal/session"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong arguments")
)

type (
	handler func(ctx context.Context, args []string) (session.View, error)

	command struct {
		args  int // number of arguments; the last one takes the rest of the line
		min   int
		usage string
		run   handler
	}

	// Console reads commands and renders views for one controller
	Console struct {
		ctrl     *session.Controller
		logger   *logger.Logger
		commands map[string]command
	}

	// result is one rendered YAML document
	result struct {
		session.View `yaml:",inline"`
		URL          string `yaml:"url,omitempty"`
		Error        string `yaml:"error,omitempty"`
	}
)

func Init(ctrl *session.Controller, logger *logger.Logger) *Console {
	c := &Console{
		ctrl:   ctrl,
		logger: logger,
	}
	c.commands = c.table()
	return c
}

// Run processes commands until in is exhausted, ctx is done or "quit" is read.
// Command errors are printed and the loop continues.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()

	view, err := c.ctrl.Start(ctx)
	if err := c.render(enc, result{View: view}, err); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}

			name, rest := cut(line)
			switch name {
			case "":
				continue
			case "quit", "exit":
				return nil
			case "help":
				if _, err := io.WriteString(out, c.help()); err != nil {
					return err
				}
				continue
			}

			res, err := c.exec(ctx, name, rest)
			if err := c.render(enc, res, err); err != nil {
				return err
			}
		}
	}
}

// exec runs a single command with its raw argument string
func (c *Console) exec(ctx context.Context, name, rawArgs string) (result, error) {
	if name == "url" {
		formID := strings.TrimSpace(rawArgs)
		if formID == "" {
			return result{View: c.ctrl.View()}, fmt.Errorf("%w: url <formID>", ErrUsage)
		}
		return result{View: c.ctrl.View(), URL: c.ctrl.AnswerURL(formID)}, nil
	}

	cmd, ok := c.commands[name]
	if !ok {
		return result{View: c.ctrl.View()}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	args := splitArgs(rawArgs, cmd.args)
	if len(args) < cmd.min {
		return result{View: c.ctrl.View()}, fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	for len(args) < cmd.args {
		args = append(args, "")
	}

	view, err := cmd.run(ctx, args)
	if err != nil {
		c.logger.Debug("command failed",
			zap.String("command", name),
			zap.Error(err))
	}
	return result{View: view}, err
}

func (c *Console) render(enc *yaml.Encoder, res result, err error) error {
	if err != nil {
		res.Error = err.Error()
	}
	if encErr := enc.Encode(res); encErr != nil {
		c.logger.Error("error encode view", zap.Error(encErr))
		return encErr
	}
	return nil
}

func (c *Console) help() string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# commands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "#   %s\n", c.commands[name].usage)
	}
	b.WriteString("#   url <formID>\n#   help\n#   quit\n")
	return b.String()
}

func (c *Console) table() map[string]command {
	ctrl := c.ctrl
	noArgs := func(usage string, fn func(context.Context) (session.View, error)) command {
		return command{usage: usage, run: func(ctx context.Context, _ []string) (session.View, error) {
			return fn(ctx)
		}}
	}
	// edit parses the arguments first so a bad argument leaves the draft untouched
	edit := func(args, minArgs int, usage string, parse func(a []string) (session.EditFunc, error)) command {
		return command{args: args, min: minArgs, usage: usage, run: func(_ context.Context, a []string) (session.View, error) {
			fn, err := parse(a)
			if err != nil {
				return ctrl.View(), err
			}
			return ctrl.Edit(fn)
		}}
	}

	return map[string]command{
		"go": {args: 1, min: 1, usage: "go <route>", run: func(ctx context.Context, a []string) (session.View, error) {
			return ctrl.Navigate(ctx, session.ParseRoute(a[0]))
		}},
		"login": {args: 1, usage: "login <id>", run: func(ctx context.Context, a []string) (session.View, error) {
			return ctrl.Login(ctx, a[0])
		}},
		"logout":    noArgs("logout", ctrl.Logout),
		"new":       noArgs("new", ctrl.CreateForm),
		"save":      noArgs("save", ctrl.Save),
		"publish":   noArgs("publish", ctrl.Publish),
		"unpublish": noArgs("unpublish", ctrl.Unpublish),
		"submit":    noArgs("submit", ctrl.Submit),
		"restart": noArgs("restart", func(context.Context) (session.View, error) {
			return ctrl.RestartAnswer()
		}),
		"show": noArgs("show", func(context.Context) (session.View, error) {
			return ctrl.View(), nil
		}),
		"filter": {args: 2, usage: "filter <all|draft|published> [query]", run: func(_ context.Context, a []string) (session.View, error) {
			return ctrl.SetFilter(a[1], session.StatusFilter(a[0]))
		}},

		"title": edit(1, 0, "title <text>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.UpdateFormMeta(f, editor.FormPatch{Title: &a[0]})
			}, nil
		}),
		"desc": edit(1, 0, "desc <text>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.UpdateFormMeta(f, editor.FormPatch{Description: &a[0]})
			}, nil
		}),
		"add": edit(2, 1, "add <singleChoice|multiChoice|text> [afterID]", func(a []string) (session.EditFunc, error) {
			qtype, err := parseType(a[0])
			if err != nil {
				return nil, err
			}
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				if a[1] != "" {
					return e.InsertQuestionAfter(f, a[1], qtype)
				}
				return e.AddQuestion(f, qtype)
			}, nil
		}),
		"rm": edit(1, 1, "rm <questionID>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.RemoveQuestion(f, a[0])
			}, nil
		}),
		"move": edit(2, 2, "move <questionID> <delta>", func(a []string) (session.EditFunc, error) {
			delta, err := strconv.Atoi(a[1])
			if err != nil {
				return nil, fmt.Errorf("%w: delta must be an integer", ErrUsage)
			}
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.MoveQuestion(f, a[0], delta)
			}, nil
		}),
		"qtitle": edit(2, 1, "qtitle <questionID> <text>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.UpdateQuestion(f, a[0], editor.QuestionPatch{Title: &a[1]})
			}, nil
		}),
		"required": edit(2, 2, "required <questionID> <on|off>", func(a []string) (session.EditFunc, error) {
			on, err := parseSwitch(a[1])
			if err != nil {
				return nil, err
			}
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.UpdateQuestion(f, a[0], editor.QuestionPatch{Required: &on})
			}, nil
		}),
		"type": edit(2, 2, "type <questionID> <singleChoice|multiChoice|text>", func(a []string) (session.EditFunc, error) {
			qtype, err := parseType(a[1])
			if err != nil {
				return nil, err
			}
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.ChangeQuestionType(f, a[0], qtype)
			}, nil
		}),
		"opt-add": edit(1, 1, "opt-add <questionID>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.AddOption(f, a[0])
			}, nil
		}),
		"opt-set": edit(3, 2, "opt-set <questionID> <optionID> <label>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.UpdateOption(f, a[0], a[1], a[2])
			}, nil
		}),
		"opt-rm": edit(2, 2, "opt-rm <questionID> <optionID>", func(a []string) (session.EditFunc, error) {
			return func(e *editor.Engine, f entity.FormDefinition) entity.FormDefinition {
				return e.RemoveOption(f, a[0], a[1])
			}, nil
		}),

		"text": {args: 2, min: 1, usage: "text <questionID> <value>", run: func(_ context.Context, a []string) (session.View, error) {
			return ctrl.SetText(a[0], a[1])
		}},
		"pick": {args: 2, min: 2, usage: "pick <questionID> <label>", run: func(_ context.Context, a []string) (session.View, error) {
			return ctrl.SelectOption(a[0], a[1])
		}},
		"toggle": {args: 2, min: 2, usage: "toggle <questionID> <label>", run: func(_ context.Context, a []string) (session.View, error) {
			view := ctrl.View()
			selected := true
			if current, ok := view.Answers[a[0]]; ok && current.Has(a[1]) {
				selected = false
			}
			return ctrl.ToggleOption(a[0], a[1], selected)
		}},
		"check": {args: 1, min: 1, usage: "check <questionID>", run: func(_ context.Context, a []string) (session.View, error) {
			return ctrl.CheckAnswer(a[0])
		}},
	}
}

func parseType(s string) (entity.QuestionType, error) {
	qtype := entity.QuestionType(s)
	if !qtype.Valid() {
		return "", fmt.Errorf("%w: unknown question type %q", ErrUsage, s)
	}
	return qtype, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrUsage, s)
}

// cut splits a line into the command name and the raw rest
func cut(line string) (string, string) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return "", ""
	}
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// splitArgs splits s into at most n whitespace separated fields. The last
// field keeps the remainder of the line, inner spaces included.
func splitArgs(s string, n int) []string {
	var out []string
	s = strings.TrimSpace(s)
	for s != "" && len(out) < n-1 {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		out = append(out, s[:i])
		s = strings.TrimSpace(s[i:])
	}
	if s != "" && n > 0 {
		out = append(out, s)
	}
	return out
}
