package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingCredential is returned before any request is made when the API key is
// empty or still the placeholder value. It is a setup problem and is never retried.
var ErrMissingCredential = errors.New("assistant: API key is missing or still set to the placeholder value")

var (
	errNoReply = errors.New("transport returned no reply")
	errNoText  = errors.New("no response text received from completion API")
)

// Observer receives every attempt as soon as it is classified.
type Observer interface {
	ObserveAttempt(a Attempt)
}

type Result struct {
	Text     string    `json:"text"`
	Outcome  Outcome   `json:"outcome"`
	Attempts []Attempt `json:"attempts"`
}

type CallOption func(*callOptions)

type callOptions struct {
	learner *LearnerContext
}

// WithLearner adds the student's progress to the system instruction of this call.
func WithLearner(lc LearnerContext) CallOption {
	return func(o *callOptions) {
		o.learner = &lc
	}
}

// Client produces one assistant reply per call. It keeps no state between calls,
// so a single Client is safe for concurrent use.
type Client struct {
	cfg       Config
	transport Transport
	policy    Policy
	log       zerolog.Logger
	observer  Observer
	sleep     func(context.Context, time.Duration) error
}

// NewClient builds a Client. A nil transport means an HTTPTransport for cfg.BaseURL.
func NewClient(cfg Config, transport Transport) *Client {
	cfg = cfg.normalized()
	if transport == nil {
		transport = NewHTTPTransport(cfg.BaseURL)
	}
	return &Client{
		cfg:       cfg,
		transport: transport,
		policy:    Policy{MaxRetries: cfg.MaxRetries, RetryDelay: cfg.RetryDelay},
		log:       zerolog.Nop(),
		sleep:     sleepContext,
	}
}

func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.log = l
	return c
}

func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// WithSleeper replaces the backoff wait.
func (c *Client) WithSleeper(fn func(context.Context, time.Duration) error) *Client {
	c.sleep = fn
	return c
}

func (c *Client) Config() Config {
	return c.cfg
}

// Complete returns the assistant's reply to message given the prior history.
// Transient failures are turned into user-facing notices; the only errors are
// ErrMissingCredential and the cancellation of ctx.
func (c *Client) Complete(ctx context.Context, message string, history []Message, opts ...CallOption) (string, error) {
	res, err := c.Exchange(ctx, message, history, opts...)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Exchange is Complete with the attempt log.
func (c *Client) Exchange(ctx context.Context, message string, history []Message, opts ...CallOption) (*Result, error) {
	if !c.cfg.HasCredential() {
		c.log.Error().Msg("API key is missing or invalid, check the environment configuration")
		return nil, ErrMissingCredential
	}

	var co callOptions
	for _, o := range opts {
		o(&co)
	}

	payload := ChatRequest{
		Model:       c.cfg.Model,
		Messages:    BuildMessages(message, history, co.learner),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
		Stream:      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Msg("encoding completion request")
		return &Result{Text: UnexpectedNotice(err), Outcome: OutcomeUnexpected}, nil
	}
	req := &Request{Credential: c.cfg.Credential, Payload: payload, Body: body}

	res := &Result{}
	total := c.policy.Attempts()
	for attempt := 0; attempt < total; attempt++ {
		c.log.Debug().
			Str("url", c.cfg.BaseURL+completionsPath).
			Int("attempt", attempt+1).
			Int("max_attempts", total).
			Msg("sending completion request")

		a, text := c.attempt(ctx, attempt, req)
		res.Attempts = append(res.Attempts, a)
		res.Outcome = a.Outcome
		if c.observer != nil {
			c.observer.ObserveAttempt(a)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d := c.policy.Decide(a.Outcome, attempt)
		c.logAttempt(a, d, total)
		if d.Action == ActionReturn {
			if a.Outcome == OutcomeSuccess {
				res.Text = text
			} else {
				res.Text = d.Text
			}
			return res, nil
		}
		if d.Delay > 0 {
			if err := c.sleep(ctx, d.Delay); err != nil {
				return nil, err
			}
		}
	}

	c.log.Error().Int("attempts", total).Msg("all retries exhausted")
	res.Text = FallbackNotice
	return res, nil
}

// attempt performs one POST under its own deadline. The deadline is always released.
func (c *Client) attempt(ctx context.Context, index int, req *Request) (Attempt, string) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	reply, err := c.transport.Send(actx, req)
	a := Attempt{Index: index, Elapsed: time.Since(start)}

	switch {
	case err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded):
		a.Outcome, a.Err = OutcomeTimeout, err
	case err != nil:
		a.Outcome, a.Err = OutcomeNetworkError, err
	case reply == nil:
		a.Outcome, a.Err = OutcomeNetworkError, errNoReply
	default:
		a.StatusCode = reply.StatusCode
		var text string
		a.Outcome, text = Classify(reply.StatusCode, reply.Body)
		switch a.Outcome {
		case OutcomeHTTPError:
			a.Err = fmt.Errorf("API request failed with status %d: %s", reply.StatusCode, reply.Body)
		case OutcomeEmptyResponse:
			a.Err = errNoText
		}
		return a, text
	}
	return a, ""
}

func (c *Client) logAttempt(a Attempt, d Decision, total int) {
	var ev *zerolog.Event
	switch {
	case a.Outcome == OutcomeSuccess:
		ev = c.log.Info()
	case d.Action == ActionRetry:
		ev = c.log.Warn().Dur("retry_delay", d.Delay)
	default:
		ev = c.log.Error()
	}
	if a.Err != nil {
		ev = ev.Err(a.Err)
	}
	if a.StatusCode != 0 {
		ev = ev.Int("status", a.StatusCode)
	}
	ev.Int("attempt", a.Index+1).
		Int("max_attempts", total).
		Str("outcome", a.Outcome.String()).
		Dur("elapsed", a.Elapsed).
		Msg("completion attempt finished")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
