package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/relaylabs/relay-agent/internal/config"
	"github.com/relaylabs/relay-agent/internal/domain"
	"github.com/relaylabs/relay-agent/internal/observability"
	"github.com/relaylabs/relay-agent/internal/retry"
)

// orchestrationSchema constrains the classifier reply to the
// OrchestrationResult shape. All three fields are required.
var orchestrationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"intent": {
			Type: genai.TypeString,
			Enum: []string{
				string(domain.IntentCalendarTool),
				string(domain.IntentCommunicationTool),
				string(domain.IntentImageGeneration),
				string(domain.IntentKnowledgeResponse),
				string(domain.IntentGeneralChat),
			},
		},
		"tool_triggered": {Type: genai.TypeString},
		"arguments": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {Type: genai.TypeString},
			},
			Required: []string{"query"},
		},
	},
	Required: []string{"intent", "tool_triggered", "arguments"},
}

// GeminiClient implements domain.ModelClient on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	policy retry.Policy

	// classify performs a single classifier attempt. Injectable so tests
	// can drive the full retry-and-absorb path without a live backend.
	classify func(ctx context.Context, text string) (string, error)
}

// NewGeminiClient builds the client from config. An API key selects the
// public Gemini API backend; otherwise project+location select Vertex.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.GeminiAPIKey != "":
		cc.APIKey = cfg.GeminiAPIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.GCPProjectID != "":
		cc.Project = cfg.GCPProjectID
		cc.Location = cfg.GCPLocation
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini client needs RELAY_GEMINI_API_KEY or RELAY_GCP_PROJECT")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	c := &GeminiClient{
		client: client,
		model:  cfg.ModelName,
		policy: retry.DefaultPolicy(),
	}
	c.classify = c.classifyOnce
	return c, nil
}

// Classify implements domain.ModelClient. Malformed replies and retry
// exhaustion become an error-intent result; terminal transport errors
// propagate to the sequencer.
func (c *GeminiClient) Classify(ctx context.Context, text string) (*domain.OrchestrationResult, error) {
	log := observability.LoggerFromContext(ctx).With("op", "classify")

	raw, err := retry.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.classify(ctx, text)
	})
	if err != nil {
		log.Error("classifier call failed", "error", err)
		return absorbClassifyFailure(err)
	}

	out, err := parseOrchestration(raw)
	if err != nil {
		log.Error("classifier reply rejected", "error", err, "raw", raw)
		return domain.ErrorResult("Failed to parse the orchestration reply."), nil
	}
	return out, nil
}

// absorbClassifyFailure enforces the classifier output guarantee: retry
// exhaustion becomes an error-intent result, terminal transport failures
// keep propagating for the sequencer to handle.
func absorbClassifyFailure(err error) (*domain.OrchestrationResult, error) {
	if errors.Is(err, domain.ErrRetryTimeout) {
		return domain.ErrorResult("The classifier did not respond in time."), nil
	}
	return nil, err
}

func (c *GeminiClient) classifyOnce(ctx context.Context, text string) (string, error) {
	temp := float32(0)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifierInstruction, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    orchestrationSchema,
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", asCallError("classify", err)
	}
	return res.Text(), nil
}

// Respond implements domain.ModelClient. Failures propagate so the
// sequencer can tell "responder failed" from a successful apologetic body.
func (c *GeminiClient) Respond(ctx context.Context, text string, intent domain.Intent) (*domain.ResponderOutput, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (*domain.ResponderOutput, error) {
		return c.respondOnce(ctx, text, intent)
	})
}

func (c *GeminiClient) respondOnce(ctx context.Context, text string, intent domain.Intent) (*domain.ResponderOutput, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		answerConfig(intent))
	if err != nil {
		return nil, asCallError("respond", err)
	}

	out := &domain.ResponderOutput{Text: res.Text()}
	if intent == domain.IntentKnowledgeResponse {
		out.Citations = citations(groundingChunks(res))
	}
	return out, nil
}

// answerConfig builds the responder request config. The external-knowledge
// tool is attached only for knowledge_response: other intents must never
// pay its cost or pick up irrelevant citations.
func answerConfig(intent domain.Intent) *genai.GenerateContentConfig {
	temp := float32(0.7)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(responderInstruction(intent), genai.RoleUser),
		Temperature:       &temp,
	}
	if intent == domain.IntentKnowledgeResponse {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func groundingChunks(res *genai.GenerateContentResponse) []*genai.GroundingChunk {
	if len(res.Candidates) == 0 || res.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return res.Candidates[0].GroundingMetadata.GroundingChunks
}

// citations extracts up to domain.MaxCitations references, preferring
// titles over raw locators, deduplicated, order preserved.
func citations(chunks []*genai.GroundingChunk) []string {
	var out []string
	seen := make(map[string]bool)

	for _, ch := range chunks {
		if ch == nil || ch.Web == nil {
			continue
		}
		ref := ch.Web.Title
		if ref == "" {
			ref = ch.Web.URI
		}
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
		if len(out) == domain.MaxCitations {
			break
		}
	}
	return out
}

// orchestrationReply is the wire shape of the classifier reply.
type orchestrationReply struct {
	Intent        string `json:"intent"`
	ToolTriggered string `json:"tool_triggered"`
	Arguments     *struct {
		Query string `json:"query"`
	} `json:"arguments"`
}

// parseOrchestration validates the structured reply. An absent arguments
// object counts as malformed, same as any other schema violation.
func parseOrchestration(raw string) (*domain.OrchestrationResult, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty reply: %w", domain.ErrMalformedReply)
	}

	var reply orchestrationReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)
	}

	intent := domain.Intent(reply.Intent)
	if !intent.Valid() || intent == domain.IntentError {
		return nil, fmt.Errorf("%w: unknown intent %q", domain.ErrMalformedReply, reply.Intent)
	}
	if reply.ToolTriggered == "" || reply.Arguments == nil {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrMalformedReply)
	}

	return &domain.OrchestrationResult{
		Intent:          intent,
		ToolLabel:       reply.ToolTriggered,
		ArgumentSummary: reply.Arguments.Query,
	}, nil
}

// asCallError maps SDK errors onto the transport taxonomy. Anything that
// is not an APIError counts as a connectivity failure.
func asCallError(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.CallError{Op: op, Status: apiErr.Code, Err: err}
	}
	return &domain.CallError{Op: op, Status: 0, Err: err}
}
