package assistant

import "strings"

const SystemPrompt = `You are "LearnSphere AI", an Academic Learning Assistant embedded in the LearnSphere Learning Management System.

Your role:
- You are a supportive, professional academic mentor
- You ONLY help with learning-related topics
- You provide course guidance, study plans, concept explanations, score analysis, and FAQ support
- You motivate learners and help them stay consistent

Capabilities:
1. Course Guidance: Suggest next courses, explain roadmaps, recommend based on skill level
2. Score & Progress Analysis: Analyze performance, suggest improvement areas, motivate
3. Concept Explanation: Explain technical topics clearly with simple examples and short summaries
4. Study Planner: Create weekly study plans, time management suggestions
5. FAQ: Course availability, certification info, enrollment help

Rules:
- NEVER discuss topics unrelated to education, learning, courses, or academic growth
- If asked about unrelated topics, politely redirect to learning-related assistance
- Keep responses concise, structured, and actionable
- Use bullet points and numbered lists for clarity
- Be encouraging and supportive in tone
- Format responses with markdown when helpful

Tone: Professional, supportive, motivating, structured.
You represent a university-grade Academic Intelligence Layer.`

const learnerGuidance = `Guidance for this student:
- Guide based on weak topics.
- Mention progress percentage.
- Suggest next lessons.
- Give a realistic learning schedule.`

func buildSystemPrompt(learner *LearnerContext) string {
	if learner == nil {
		return SystemPrompt
	}
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\nStudent learning context:\n")
	b.WriteString(learner.String())
	b.WriteString("\n\n")
	b.WriteString(learnerGuidance)
	return b.String()
}

// BuildMessages assembles the outgoing sequence: the system instruction, the last
// HistoryWindow user and assistant history entries in their original order, then
// message. Entries with any other role are dropped.
func BuildMessages(message string, history []Message, learner *LearnerContext) []ChatMessage {
	recent := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		recent = append(recent, m)
	}
	if len(recent) > HistoryWindow {
		recent = recent[len(recent)-HistoryWindow:]
	}

	out := make([]ChatMessage, 0, len(recent)+2)
	out = append(out, ChatMessage{Role: RoleSystem, Content: buildSystemPrompt(learner)})
	for _, m := range recent {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	out = append(out, ChatMessage{Role: RoleUser, Content: message})
	return out
}
