package domain

import "time"

type ChatID string
type UserID string
type MessageID string

// SystemAuthor is the fixed actor for pipeline-generated messages.
const SystemAuthor UserID = "system"

// Intent is the classified category of a user request.
type Intent string

const (
	IntentCalendarTool      Intent = "calendar_tool"
	IntentCommunicationTool Intent = "communication_tool"
	IntentImageGeneration   Intent = "image_generation"
	IntentKnowledgeResponse Intent = "knowledge_response"
	IntentGeneralChat       Intent = "general_chat"
	IntentError             Intent = "error"
)

// Valid reports whether i is one of the enumerated intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentCalendarTool, IntentCommunicationTool, IntentImageGeneration,
		IntentKnowledgeResponse, IntentGeneralChat, IntentError:
		return true
	}
	return false
}

// Conversational reports whether the intent is answered by the responder call.
func (i Intent) Conversational() bool {
	return i == IntentGeneralChat || i == IntentKnowledgeResponse
}

// Tool reports whether the intent is handled by a mocked tool execution.
func (i Intent) Tool() bool {
	switch i {
	case IntentCalendarTool, IntentCommunicationTool, IntentImageGeneration:
		return true
	}
	return false
}

// MessageKind tags a chat log record: "user_query" for submissions,
// otherwise the intent the pipeline classified.
type MessageKind string

const KindUserQuery MessageKind = "user_query"

type Timestamp = time.Time
