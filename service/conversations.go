package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ibreez3/learnsphere-ai/assistant"
)

// ErrorReply is appended to a conversation when no reply could be produced.
const ErrorReply = "I'm sorry, I encountered an error. Please try again."

var (
	ErrNotFound     = errors.New("conversation not found")
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply for this conversation is still pending")
)

// Completer produces one assistant reply. *assistant.Client satisfies it.
type Completer interface {
	Exchange(ctx context.Context, message string, history []assistant.Message, opts ...assistant.CallOption) (*assistant.Result, error)
}

type Conversation struct {
	ID        string              `json:"id"`
	Messages  []assistant.Message `json:"messages"`
	Pending   bool                `json:"pending"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	transcript *Transcript
}

func (c *Conversation) snapshot() *Conversation {
	cp := *c
	cp.Messages = append([]assistant.Message{}, c.Messages...)
	cp.transcript = nil
	return &cp
}

// Turn is the outcome of one Send.
type Turn struct {
	User      assistant.Message   `json:"user"`
	Assistant assistant.Message   `json:"assistant"`
	Outcome   assistant.Outcome   `json:"outcome"`
	Attempts  []assistant.Attempt `json:"attempts"`
}

type Manager struct {
	mu            sync.Mutex
	conversations map[string]*Conversation

	client        Completer
	metrics       *Metrics
	transcriptDir string
	log           zerolog.Logger
}

func NewManager(client Completer) *Manager {
	return &Manager{
		conversations: map[string]*Conversation{},
		client:        client,
		log:           zerolog.Nop(),
	}
}

// WithTranscripts writes every conversation to <dir>/conversations/<id>.log.
func (m *Manager) WithTranscripts(dir string) *Manager {
	m.transcriptDir = dir
	return m
}

func (m *Manager) WithMetrics(metrics *Metrics) *Manager {
	m.metrics = metrics
	return m
}

func (m *Manager) WithLogger(l zerolog.Logger) *Manager {
	m.log = l
	return m
}

func (m *Manager) Start() *Conversation {
	now := time.Now()
	c := &Conversation{ID: uuid.NewString(), Messages: []assistant.Message{}, CreatedAt: now, UpdatedAt: now}
	if m.transcriptDir != "" {
		t, err := NewTranscript(m.transcriptDir, c.ID)
		if err != nil {
			m.log.Warn().Err(err).Str("conversation_id", c.ID).Msg("transcript disabled")
		} else {
			c.transcript = t
			t.Log("[start] conversation opened")
		}
	}

	m.mu.Lock()
	m.conversations[c.ID] = c
	m.mu.Unlock()
	return c.snapshot()
}

// Get returns a copy of the conversation, or nil.
func (m *Manager) Get(id string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil
	}
	return c.snapshot()
}

// Ask runs a single stateless completion and records its outcome.
func (m *Manager) Ask(ctx context.Context, message string, history []assistant.Message, opts ...assistant.CallOption) (*assistant.Result, error) {
	res, err := m.client.Exchange(ctx, message, history, opts...)
	if m.metrics != nil {
		if err != nil {
			m.metrics.ObserveFailure()
		} else {
			m.metrics.ObserveReply(res.Outcome)
		}
	}
	return res, err
}

// Send appends content as a user message, asks the assistant with the history
// that preceded it and appends the reply. Only one Send per conversation may be
// in flight. When the assistant fails, the apology is appended and the error is
// returned together with the turn.
func (m *Manager) Send(ctx context.Context, id, content string, opts ...assistant.CallOption) (*Turn, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	m.mu.Lock()
	c, ok := m.conversations[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if c.Pending {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	history := append([]assistant.Message{}, c.Messages...)
	user := assistant.NewMessage(assistant.RoleUser, content)
	c.Messages = append(c.Messages, user)
	c.Pending = true
	c.UpdatedAt = user.Timestamp
	transcript := c.transcript
	m.mu.Unlock()

	if transcript != nil {
		transcript.Log("[user] " + content)
	}

	turn := &Turn{User: user}
	res, err := m.Ask(ctx, content, history, opts...)
	if err != nil {
		m.log.Error().Err(err).Str("conversation_id", id).Msg("assistant reply failed")
		turn.Assistant = assistant.NewMessage(assistant.RoleAssistant, ErrorReply)
	} else {
		turn.Assistant = assistant.NewMessage(assistant.RoleAssistant, res.Text)
		turn.Outcome = res.Outcome
		turn.Attempts = res.Attempts
	}

	m.mu.Lock()
	if c, ok := m.conversations[id]; ok {
		c.Messages = append(c.Messages, turn.Assistant)
		c.Pending = false
		c.UpdatedAt = turn.Assistant.Timestamp
	}
	m.mu.Unlock()

	if transcript != nil {
		transcript.Log("[assistant] " + turn.Assistant.Content)
	}
	return turn, err
}

// Clear drops all messages. A reply still in flight is appended when it arrives.
func (m *Manager) Clear(id string) error {
	m.mu.Lock()
	c, ok := m.conversations[id]
	if ok {
		c.Messages = []assistant.Message{}
		c.UpdatedAt = time.Now()
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if c.transcript != nil {
		c.transcript.Log("[clear] history cleared")
	}
	return nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	c, ok := m.conversations[id]
	delete(m.conversations, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if c.transcript != nil {
		c.transcript.Log("[end] conversation deleted")
	}
	return nil
}
