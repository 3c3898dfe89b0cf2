package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ibreez3/learnsphere-ai/assistant"
	"github.com/ibreez3/learnsphere-ai/service"
)

type session struct {
	mgr       *service.Manager
	id        string
	html      bool
	apiKeyEnv string
	opts      []assistant.CallOption
	out       io.Writer
}

func newSession(mgr *service.Manager, out io.Writer) *session {
	return &session{mgr: mgr, id: mgr.Start().ID, out: out}
}

// run reads one message per line until EOF or /quit.
func (s *session) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "LearnSphere AI. Type /actions for suggestions, /clear to reset, /quit to exit.")
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		quit, err := s.handle(ctx, sc.Text())
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (s *session) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit" || line == "/exit":
		return true, nil
	case line == "/clear":
		if err := s.mgr.Clear(s.id); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "(history cleared)")
		return false, nil
	case line == "/actions":
		for i, a := range service.GetQuickActions() {
			fmt.Fprintf(s.out, "  /%d  %s: %s\n", i+1, a.Label, a.Prompt)
		}
		return false, nil
	case strings.HasPrefix(line, "/"):
		n, err := strconv.Atoi(line[1:])
		actions := service.GetQuickActions()
		if err != nil || n < 1 || n > len(actions) {
			fmt.Fprintf(s.out, "unknown command %q\n", line)
			return false, nil
		}
		line = actions[n-1].Prompt
		fmt.Fprintf(s.out, "> %s\n", line)
	}
	return false, s.send(ctx, line)
}

func (s *session) send(ctx context.Context, content string) error {
	turn, err := s.mgr.Send(ctx, s.id, content, s.opts...)
	switch {
	case errors.Is(err, assistant.ErrMissingCredential):
		fmt.Fprintln(s.out, turn.Assistant.Content)
		fmt.Fprintf(s.out, "(set %s in the environment or in .env)\n", s.apiKeyEnv)
		return nil
	case err != nil:
		return err
	}
	text := turn.Assistant.Content
	if s.html {
		text = service.RenderHTML(text)
	}
	fmt.Fprintln(s.out, text)
	return nil
}
