package openai

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	openai "github.com/openai/openai-go/v3" // imported as openai
	"github.com/openai/openai-go/v3/option"

	"github.com/ibreez3/learnsphere-ai/assistant"
)

// Transport sends completion requests through the official SDK. SDK retries are
// disabled; the assistant client owns the retry policy.
type Transport struct {
	cli openai.Client
}

func NewTransport(baseURL string) *Transport {
	cli := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"),
		option.WithMaxRetries(0),
	)
	return &Transport{cli: cli}
}

var _ assistant.Transport = (*Transport)(nil)

func (t *Transport) Send(ctx context.Context, req *assistant.Request) (*assistant.Reply, error) {
	rec := &capture{}
	res, err := t.cli.Chat.Completions.New(ctx, params(req.Payload),
		option.WithAPIKey(req.Credential),
		option.WithJSONSet("stream", req.Payload.Stream),
		option.WithMiddleware(rec.middleware),
	)
	if status, body, ok := rec.reply(); ok {
		return &assistant.Reply{StatusCode: status, Body: body}, nil
	}
	if err != nil {
		return nil, err
	}
	return &assistant.Reply{StatusCode: http.StatusOK, Body: []byte(res.RawJSON())}, nil
}

func params(p assistant.ChatRequest) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Messages))
	for _, m := range p.Messages {
		switch m.Role {
		case assistant.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case assistant.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:       p.Model,
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(p.MaxTokens)),
		Temperature: openai.Float(p.Temperature),
		TopP:        openai.Float(p.TopP),
	}
}

// capture keeps the raw HTTP response. The SDK only surfaces error bodies it can
// decode, and the client classifies on status and body regardless of shape.
type capture struct {
	mu     sync.Mutex
	seen   bool
	status int
	body   []byte
}

func (c *capture) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	res, err := next(req)
	if err != nil || res == nil {
		return res, err
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, err
	}
	res.Body = io.NopCloser(bytes.NewReader(body))

	c.mu.Lock()
	c.seen, c.status, c.body = true, res.StatusCode, body
	c.mu.Unlock()
	return res, nil
}

func (c *capture) reply() (int, []byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.body, c.seen
}
