package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaylabs/relay-agent/internal/app/tools"
	"github.com/relaylabs/relay-agent/internal/domain"
	"github.com/relaylabs/relay-agent/internal/observability"
)

const (
	classifyFailedText = "The request could not be classified. Please try again."
	respondFailedText  = "Generation failed: the model could not produce a response. Please try again."
)

// Service drives one user submission through classify -> branch ->
// respond/mock/fail -> persist. At most one submission per user is in
// flight at a time; concurrent users are independent.
type Service struct {
	model domain.ModelClient
	log   domain.ChatLog
	tools *tools.Registry
	now   func() time.Time
	newID func() domain.MessageID

	mu       sync.Mutex
	inflight map[domain.UserID]bool
}

func NewService(model domain.ModelClient, chatLog domain.ChatLog, registry *tools.Registry) *Service {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Service{
		model:    model,
		log:      chatLog,
		tools:    registry,
		now:      time.Now,
		newID:    func() domain.MessageID { return domain.MessageID(uuid.NewString()) },
		inflight: make(map[domain.UserID]bool),
	}
}

type SubmitInput struct {
	ChatID domain.ChatID
	UserID domain.UserID
	Text   string
}

type SubmitOutput struct {
	UserMessage   *domain.ChatMessage
	SystemMessage *domain.ChatMessage
}

// Submit runs the full pipeline for one user submission. Every outcome,
// including classifier and responder failures, persists exactly one
// user_query record and one system record as a single atomic append; only
// a rejected submission or an append failure returns an error.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyText
	}

	if !s.acquire(in.UserID) {
		return nil, domain.ErrBusy
	}
	defer s.release(in.UserID)

	log := observability.LoggerFromContext(ctx).With(
		"chat_id", in.ChatID,
		"user_id", in.UserID,
	)
	log.Info("submission accepted")

	start := s.now()

	res, err := s.model.Classify(ctx, text)
	if err != nil {
		// Network-level failure not absorbed by the classifier boundary.
		log.Error("classifier call failed", "error", err)
		res = domain.ErrorResult("The classifier call failed.")
	}

	continuation := s.continuation(ctx, in, text, res, log)
	systemText := composeSystemText(res, continuation)

	userMsg := domain.NewUserQuery(in.ChatID, in.UserID, text)
	userMsg.ID = s.newID()
	systemMsg := domain.NewSystemMessage(in.ChatID, res.Intent, systemText)
	systemMsg.ID = s.newID()

	if err := s.log.AppendPair(ctx, userMsg, systemMsg); err != nil {
		log.Error("failed to append message pair", "error", err)
		return nil, fmt.Errorf("persisting submission: %w", err)
	}

	log.Info("submission persisted",
		"intent", res.Intent,
		"elapsed_ms", s.now().Sub(start).Milliseconds())

	return &SubmitOutput{
		UserMessage:   userMsg,
		SystemMessage: systemMsg,
	}, nil
}

// continuation produces the stage-specific tail of the system message.
func (s *Service) continuation(
	ctx context.Context,
	in SubmitInput,
	text string,
	res *domain.OrchestrationResult,
	log *slog.Logger,
) string {
	switch {
	case res.Intent.Conversational():
		out, err := s.model.Respond(ctx, text, res.Intent)
		if err != nil {
			// Responder failures still produce a visible chat bubble.
			log.Error("responder call failed", "error", err)
			return respondFailedText
		}
		return out.Compose()

	case res.Intent.Tool():
		tctx := tools.ToolContext{
			UserID: string(in.UserID),
			ChatID: string(in.ChatID),
		}
		mock, err := s.tools.Execute(ctx, tctx, res.Intent, res.ToolLabel, res.ArgumentSummary)
		if err != nil {
			log.Error("tool mock failed", "error", err)
			return respondFailedText
		}
		return mock

	default: // domain.IntentError
		return classifyFailedText
	}
}

// composeSystemText renders the sole payload of the system record: the
// fixed classification header followed by the stage continuation.
func composeSystemText(res *domain.OrchestrationResult, continuation string) string {
	header := fmt.Sprintf("Intent Classified: %s. Tool: %s. Summary: %q.",
		res.Intent, res.ToolLabel, res.ArgumentSummary)
	if continuation == "" {
		return header
	}
	return header + "\n\n" + continuation
}

// Busy reports whether a submission from user is still in flight; the
// rendering layer polls it to disable re-submission.
func (s *Service) Busy(user domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[user]
}

func (s *Service) acquire(user domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[user] {
		return false
	}
	s.inflight[user] = true
	return true
}

func (s *Service) release(user domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, user)
}

// Timeline returns the chat's record set ordered by commit timestamp.
func (s *Service) Timeline(ctx context.Context, chatID domain.ChatID, limit int) ([]*domain.ChatMessage, error) {
	msgs, err := s.log.ListMessages(ctx, chatID, limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list messages",
			"chat_id", chatID, "error", err)
		return nil, err
	}
	return msgs, nil
}

// Watch subscribes the rendering layer to the chat's full ordered record
// set on every change.
func (s *Service) Watch(ctx context.Context, chatID domain.ChatID, fn func([]*domain.ChatMessage)) (func(), error) {
	return s.log.Subscribe(ctx, chatID, fn)
}
