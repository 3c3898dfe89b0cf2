package assistant

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. Order is significant.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, Timestamp: time.Now()}
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body sent to <base>/chat/completions.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type CourseProgress struct {
	Name       string  `json:"name"`
	Completion float64 `json:"completion"`
}

type Performance struct {
	AverageScore  float64  `json:"average_score"`
	WeakTopics    []string `json:"weak_topics"`
	LearningTrend string   `json:"learning_trend"`
	Engagement    string   `json:"engagement"`
}

// LearnerContext describes the student the assistant is talking to. It is folded
// into the system instruction, never into the history.
type LearnerContext struct {
	Courses        []CourseProgress `json:"courses"`
	Performance    Performance      `json:"performance"`
	RecentActivity []string         `json:"recent_activity"`
}

const unknownValue = "unknown"

func (lc LearnerContext) String() string {
	if lc.Courses == nil {
		lc.Courses = []CourseProgress{}
	}
	if lc.Performance.WeakTopics == nil {
		lc.Performance.WeakTopics = []string{}
	}
	if lc.RecentActivity == nil {
		lc.RecentActivity = []string{}
	}
	if lc.Performance.LearningTrend == "" {
		lc.Performance.LearningTrend = unknownValue
	}
	if lc.Performance.Engagement == "" {
		lc.Performance.Engagement = unknownValue
	}
	b, err := json.MarshalIndent(lc, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
