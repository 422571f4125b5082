package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/relaylabs/relay-agent/internal/domain"
	"github.com/relaylabs/relay-agent/internal/retry"
)

func TestParseOrchestrationValidReply(t *testing.T) {
	raw := `{"intent":"calendar_tool","tool_triggered":"Calendar API","arguments":{"query":"lunch Friday"}}`

	out, err := parseOrchestration(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentCalendarTool, out.Intent)
	assert.Equal(t, "Calendar API", out.ToolLabel)
	assert.Equal(t, "lunch Friday", out.ArgumentSummary)
}

func TestParseOrchestrationRejectsMalformedReplies(t *testing.T) {
	cases := map[string]string{
		"empty":             ``,
		"not json":          `intent: general_chat`,
		"unknown intent":    `{"intent":"weather_tool","tool_triggered":"x","arguments":{"query":"q"}}`,
		"error intent":      `{"intent":"error","tool_triggered":"x","arguments":{"query":"q"}}`,
		"missing tool":      `{"intent":"general_chat","arguments":{"query":"q"}}`,
		"missing arguments": `{"intent":"general_chat","tool_triggered":"Chat"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseOrchestration(raw)
			require.ErrorIs(t, err, domain.ErrMalformedReply)
		})
	}
}

func TestAbsorbClassifyFailure(t *testing.T) {
	// Exhausted retries synthesize an error-intent result.
	res, err := absorbClassifyFailure(fmt.Errorf("3 attempts failed: %w", domain.ErrRetryTimeout))
	require.NoError(t, err)
	assert.Equal(t, domain.IntentError, res.Intent)

	// Terminal transport failures keep propagating.
	terminal := &domain.CallError{Op: "classify", Status: 400, Err: errors.New("bad request")}
	_, err = absorbClassifyFailure(terminal)
	require.ErrorIs(t, err, terminal)
}

// failingClient builds a GeminiClient whose classifier attempts run fn,
// with backoff waits recorded instead of slept.
func failingClient(fn func(ctx context.Context, text string) (string, error), sleeps *[]time.Duration) *GeminiClient {
	policy := retry.DefaultPolicy().WithSleep(func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	})
	return &GeminiClient{policy: policy, classify: fn}
}

func TestClassifyAbsorbsExhaustedRetries(t *testing.T) {
	var sleeps []time.Duration
	attempts := 0
	c := failingClient(func(context.Context, string) (string, error) {
		attempts++
		return "", &domain.CallError{Op: "classify", Status: 503, Err: errors.New("overloaded")}
	}, &sleeps)

	res, err := c.Classify(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, domain.IntentError, res.Intent)
	assert.Equal(t, "none", res.ToolLabel)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestClassifyStopsOnTerminalFailure(t *testing.T) {
	var sleeps []time.Duration
	attempts := 0
	terminal := &domain.CallError{Op: "classify", Status: 400, Err: errors.New("bad request")}
	c := failingClient(func(context.Context, string) (string, error) {
		attempts++
		return "", terminal
	}, &sleeps)

	_, err := c.Classify(context.Background(), "hello")
	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sleeps)
}

func TestClassifyRecoversAfterTransientFailures(t *testing.T) {
	var sleeps []time.Duration
	attempts := 0
	c := failingClient(func(context.Context, string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &domain.CallError{Op: "classify", Status: 503, Err: errors.New("overloaded")}
		}
		return `{"intent":"general_chat","tool_triggered":"Chat","arguments":{"query":"hello"}}`, nil
	}, &sleeps)

	res, err := c.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentGeneralChat, res.Intent)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestAnswerConfigEnablesGroundingOnlyWhenRequested(t *testing.T) {
	grounded := answerConfig(domain.IntentKnowledgeResponse)
	require.Len(t, grounded.Tools, 1)
	assert.NotNil(t, grounded.Tools[0].GoogleSearch)

	for _, intent := range []domain.Intent{
		domain.IntentGeneralChat,
		domain.IntentCalendarTool,
		domain.IntentCommunicationTool,
		domain.IntentImageGeneration,
	} {
		assert.Empty(t, answerConfig(intent).Tools, "intent %s", intent)
	}
}

func TestResponderInstructionSelection(t *testing.T) {
	assert.Equal(t, responderGroundedInstruction, responderInstruction(domain.IntentKnowledgeResponse))
	assert.Equal(t, responderPlainInstruction, responderInstruction(domain.IntentGeneralChat))
	assert.Equal(t, responderPlainInstruction, responderInstruction(domain.IntentCalendarTool))
}

func TestCitationsPreferTitlesDedupeAndCap(t *testing.T) {
	chunks := []*genai.GroundingChunk{
		{Web: &genai.GroundingChunkWeb{Title: "A"}},
		{Web: &genai.GroundingChunkWeb{URI: "http://b"}},
		{Web: &genai.GroundingChunkWeb{Title: "A", URI: "http://a"}}, // duplicate title
		{Web: &genai.GroundingChunkWeb{Title: "C"}},
		{Web: &genai.GroundingChunkWeb{Title: "D"}}, // past the cap
		nil,
		{Web: nil},
	}

	assert.Equal(t, []string{"A", "http://b", "C"}, citations(chunks))
}

func TestCitationsEmptyWhenNoGrounding(t *testing.T) {
	assert.Empty(t, citations(nil))
	assert.Empty(t, citations([]*genai.GroundingChunk{{Web: &genai.GroundingChunkWeb{}}}))
}
