package service

type QuickAction struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

func GetQuickActions() []QuickAction {
	return []QuickAction{
		{Label: "Course Guidance", Prompt: "Can you suggest courses based on my interests?"},
		{Label: "Study Plan", Prompt: "Help me create a weekly study plan"},
		{Label: "Explain a Concept", Prompt: "Can you explain a technical concept to me?"},
		{Label: "FAQ", Prompt: "Tell me about certifications and enrollment"},
	}
}
