package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/chat"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/assistant"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/session"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/pkg/utils"
)

// Assistant is the conversation loop as seen by the HTTP layer.
type Assistant interface {
	Reply(ctx context.Context, sessionID, text string) (string, error)
	History(sessionID string) ([]*schema.Message, error)
	FailureText(err error) string
}

// Handler serves the chat endpoints.
type Handler struct {
	assistant Assistant
	validate  *validator.Validate
}

// New creates a chat handler backed by a.
func New(a Assistant) *Handler {
	return &Handler{
		assistant: a,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/sessions/{sessionID}", h.handleSession)
}

// handleChat runs one conversation turn. Failures inside the turn are
// spoken back to the caller as the reply, so they still answer 200.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	logger := slog.With("session", payload.SessionID, "request_id", middleware.GetReqID(r.Context()))
	logger.Info("user message", "text", payload.Text)

	reply, err := h.assistant.Reply(r.Context(), payload.SessionID, payload.Text)
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	case err != nil:
		logger.Error("turn failed", "err", err)
		reply = h.assistant.FailureText(err)
	}

	logger.Info("assistant reply", "reply", reply)
	utils.RespondJSON(w, http.StatusOK, chat.ChatResponse{Reply: reply})
}

// handleSession returns the session transcript for debugging.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	history, err := h.assistant.History(sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := chat.SessionView{ID: sessionID, Messages: make([]chat.Message, 0, len(history))}
	for _, msg := range history {
		view.Messages = append(view.Messages, chat.FromSchema(msg))
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return jsonName(fe.Field()) + " is required"
	default:
		return jsonName(fe.Field()) + " is invalid"
	}
}

func jsonName(field string) string {
	switch field {
	case "SessionID":
		return "session_id"
	case "Text":
		return "text"
	default:
		return field
	}
}
