package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ibreez3/learnsphere-ai/assistant"
	"github.com/ibreez3/learnsphere-ai/config"
	"github.com/ibreez3/learnsphere-ai/service"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	message := flag.String("message", "", "send a single message and exit")
	transport := flag.String("transport", "", "override assistant.transport (http or sdk)")
	html := flag.Bool("html", false, "print replies as HTML")
	learnerFile := flag.String("learner", "", "JSON file describing the learner's progress")
	flag.Parse()

	if _, err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	if err := overrideTransport(&cfg, *transport); err != nil {
		fatal(err)
	}

	log := service.NewLogger(os.Stderr, cfg.Server.LogLevel, "learnsphere-chat")
	client := service.NewClient(cfg, log)
	mgr := service.NewManager(client).WithLogger(log).WithTranscripts(cfg.Server.TranscriptDir)

	s := newSession(mgr, os.Stdout)
	s.html = *html
	s.apiKeyEnv = cfg.Assistant.APIKeyEnv
	if *learnerFile != "" {
		lc, err := readLearner(*learnerFile)
		if err != nil {
			fatal(err)
		}
		s.opts = append(s.opts, assistant.WithLearner(lc))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *message != "" {
		if !client.Config().HasCredential() {
			fatal(fmt.Errorf("%w: set %s", assistant.ErrMissingCredential, cfg.Assistant.APIKeyEnv))
		}
		if err := s.send(ctx, *message); err != nil {
			fatal(err)
		}
		return
	}
	if err := s.run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}

// overrideTransport applies the -transport flag on top of the loaded config.
func overrideTransport(cfg *config.Config, transport string) error {
	if transport == "" {
		return nil
	}
	cfg.Assistant.Transport = strings.ToLower(strings.TrimSpace(transport))
	return cfg.Validate()
}

func readLearner(path string) (assistant.LearnerContext, error) {
	var lc assistant.LearnerContext
	b, err := os.ReadFile(path)
	if err != nil {
		return lc, err
	}
	if err := json.Unmarshal(b, &lc); err != nil {
		return lc, fmt.Errorf("parse %s: %w", path, err)
	}
	return lc, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
