package tools

import (
	"context"
	"fmt"

	"github.com/relaylabs/relay-agent/internal/domain"
)

// ToolContext brings metadata of the call to the tool
type ToolContext struct {
	UserID    string
	ChatID    string
	RequestID string
}

// Tool describes a mocked external capability. Execute never performs a
// real side effect: it produces a deterministic description of what the
// tool would do with the classified label and query.
type Tool interface {
	Name() string
	Execute(ctx context.Context, tctx ToolContext, label, query string) (string, error)
}

// Registry maps tool intents to their mock implementations.
type Registry struct {
	tools map[domain.Intent]Tool
}

// NewRegistry builds the default registry covering every tool intent.
func NewRegistry() *Registry {
	return &Registry{
		tools: map[domain.Intent]Tool{
			domain.IntentCalendarTool:      calendarTool{},
			domain.IntentCommunicationTool: communicationTool{},
			domain.IntentImageGeneration:   imageTool{},
		},
	}
}

// Execute runs the mock for intent. Unknown tool intents get a generic
// mock line rather than an error: the pipeline must always produce a
// displayable continuation.
func (r *Registry) Execute(ctx context.Context, tctx ToolContext, intent domain.Intent, label, query string) (string, error) {
	t, ok := r.tools[intent]
	if !ok {
		return fmt.Sprintf("Mock execution: %s would now handle the request %q.", label, query), nil
	}
	return t.Execute(ctx, tctx, label, query)
}

type calendarTool struct{}

func (calendarTool) Name() string { return "calendar_mock" }

func (calendarTool) Execute(_ context.Context, _ ToolContext, label, query string) (string, error) {
	return fmt.Sprintf("Mock execution: %s would create the calendar entry described by %q. No real event was scheduled.", label, query), nil
}

type communicationTool struct{}

func (communicationTool) Name() string { return "communication_mock" }

func (communicationTool) Execute(_ context.Context, _ ToolContext, label, query string) (string, error) {
	return fmt.Sprintf("Mock execution: %s would send the message described by %q. Nothing was actually sent.", label, query), nil
}

type imageTool struct{}

func (imageTool) Name() string { return "image_mock" }

func (imageTool) Execute(_ context.Context, _ ToolContext, label, query string) (string, error) {
	return fmt.Sprintf("Mock execution: %s would render an image for %q. No image was generated.", label, query), nil
}
