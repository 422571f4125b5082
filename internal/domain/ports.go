package domain

import "context"

// ModelClient defines the two LLM round trips the pipeline needs.
type ModelClient interface {
	// Classify maps raw user text onto an OrchestrationResult. Malformed
	// model output and retry exhaustion are absorbed into an error-intent
	// result; only terminal transport failures return an error.
	Classify(ctx context.Context, text string) (*OrchestrationResult, error)

	// Respond generates the free-text answer. External-knowledge grounding
	// is enabled only for IntentKnowledgeResponse. Failures propagate as
	// errors so the caller can tell them apart from apologetic text.
	Respond(ctx context.Context, text string, intent Intent) (*ResponderOutput, error)
}

// ChatLog is the durable, shared conversation log.
type ChatLog interface {
	// AppendPair commits the user record and its paired system record as
	// one atomic unit: both become visible or neither does.
	AppendPair(ctx context.Context, user, system *ChatMessage) error

	// ListMessages returns up to limit records for a chat, ordered by
	// commit timestamp ascending. limit <= 0 means no limit.
	ListMessages(ctx context.Context, chatID ChatID, limit int) ([]*ChatMessage, error)

	// Subscribe delivers the full ordered record set on every change
	// until the returned stop function is called or ctx is cancelled.
	Subscribe(ctx context.Context, chatID ChatID, fn func([]*ChatMessage)) (func(), error)
}
