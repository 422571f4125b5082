package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/relaylabs/relay-agent/internal/app/chat"
	"github.com/relaylabs/relay-agent/internal/domain"
)

type Server struct {
	svc *chat.Service
}

func NewServer(svc *chat.Service) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /chats/{id}/messages → GET: ordered timeline, POST: run the pipeline
	mux.HandleFunc("/chats/", s.handleChatWithID)

	// Innermost first: logging needs the request id already in context.
	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type postMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

type postMessageResponse struct {
	UserMessage   messageResponse `json:"user_message"`
	SystemMessage messageResponse `json:"system_message"`
}

type timelineResponse struct {
	Messages []messageResponse `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ─────────────────────────────────────────────
// Routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /chats/{id}/messages
func (s *Server) handleChatWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/chats/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "messages" {
		http.NotFound(w, r)
		return
	}
	chatID := domain.ChatID(parts[0])

	switch r.Method {
	case http.MethodGet:
		s.handleTimeline(w, r, chatID)
	case http.MethodPost:
		s.handlePostMessage(w, r, chatID)
	default:
		methodNotAllowed(w)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request, chatID domain.ChatID) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.svc.Submit(r.Context(), chat.SubmitInput{
		ChatID: chatID,
		UserID: domain.UserID(req.UserID),
		Text:   req.Text,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyText):
			badRequest(w, "text is required")
		case errors.Is(err, domain.ErrBusy):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "a submission is already in flight"})
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, postMessageResponse{
		UserMessage:   toMessageResponse(out.UserMessage),
		SystemMessage: toMessageResponse(out.SystemMessage),
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request, chatID domain.ChatID) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	msgs, err := s.svc.Timeline(r.Context(), chatID, limit)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := timelineResponse{Messages: make([]messageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toMessageResponse(m *domain.ChatMessage) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		ChatID:    string(m.ChatID),
		Author:    string(m.AuthorID),
		Text:      m.Text,
		Kind:      string(m.Kind),
		System:    m.System,
		CreatedAt: m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
