package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaylabs/relay-agent/internal/domain"
)

// MockModel is a deterministic stand-in for the Gemini client, used in
// local mode and handler tests. Classification is keyword-based.
type MockModel struct{}

func NewMockModel() *MockModel {
	return &MockModel{}
}

func (m *MockModel) Classify(_ context.Context, text string) (*domain.OrchestrationResult, error) {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "schedule", "meeting", "calendar", "remind"):
		return &domain.OrchestrationResult{
			Intent:          domain.IntentCalendarTool,
			ToolLabel:       "Calendar API",
			ArgumentSummary: text,
		}, nil
	case containsAny(lower, "email", "send a message", "notify", "text "):
		return &domain.OrchestrationResult{
			Intent:          domain.IntentCommunicationTool,
			ToolLabel:       "Messaging API",
			ArgumentSummary: text,
		}, nil
	case containsAny(lower, "image", "draw", "picture", "render"):
		return &domain.OrchestrationResult{
			Intent:          domain.IntentImageGeneration,
			ToolLabel:       "Image Model",
			ArgumentSummary: text,
		}, nil
	case containsAny(lower, "what", "who", "when", "where", "why", "how", "latest"):
		return &domain.OrchestrationResult{
			Intent:          domain.IntentKnowledgeResponse,
			ToolLabel:       "Search",
			ArgumentSummary: text,
		}, nil
	default:
		return &domain.OrchestrationResult{
			Intent:          domain.IntentGeneralChat,
			ToolLabel:       "Chat",
			ArgumentSummary: text,
		}, nil
	}
}

func (m *MockModel) Respond(_ context.Context, text string, intent domain.Intent) (*domain.ResponderOutput, error) {
	out := &domain.ResponderOutput{
		Text: fmt.Sprintf("You said %q. This is a canned local reply.", text),
	}
	if intent == domain.IntentKnowledgeResponse {
		out.Citations = []string{"Local Mock Encyclopedia"}
	}
	return out, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
