package domain

import "strings"

// OrchestrationResult is the parsed output of the classifier call.
// Intent is always one of the enumerated values: any failure to obtain or
// parse a valid structured reply is forced to IntentError, with ToolLabel
// and ArgumentSummary carrying diagnostic text instead of task data.
type OrchestrationResult struct {
	Intent          Intent
	ToolLabel       string
	ArgumentSummary string
}

// ErrorResult synthesizes the error-intent variant for a failed or
// malformed classification.
func ErrorResult(detail string) *OrchestrationResult {
	return &OrchestrationResult{
		Intent:          IntentError,
		ToolLabel:       "none",
		ArgumentSummary: detail,
	}
}

// MaxCitations bounds the sources line of a grounded response.
const MaxCitations = 3

// emptyReplyText is returned when the model produced no text at all.
const emptyReplyText = "I could not generate a response. Please try rephrasing your request."

// ResponderOutput is the parsed output of the responder call.
type ResponderOutput struct {
	Text      string
	Citations []string // deduplicated, titles preferred, at most MaxCitations
}

// Compose renders the user-visible body: the reply text with a trailing
// sources line when grounding produced citations.
func (r *ResponderOutput) Compose() string {
	text := r.Text
	if text == "" {
		text = emptyReplyText
	}
	if len(r.Citations) == 0 {
		return text
	}
	return text + "\n\nSources: " + strings.Join(r.Citations, ", ")
}
