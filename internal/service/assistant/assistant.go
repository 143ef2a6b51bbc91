package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/metrics"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/calendar"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/session"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/tools"
)

var ErrEmptyInput = errors.New("text is required")

// Options tunes the conversation loop.
type Options struct {
	// MaxToolRounds caps tool rounds per turn. The call that follows the
	// last round is made without tools so it always yields text.
	MaxToolRounds int
	// Apology prefixes failures surfaced as reply text.
	Apology string
	Metrics *metrics.Metrics
}

// Assistant runs one user turn at a time per session.
type Assistant struct {
	store      *session.Store
	dispatcher *tools.Dispatcher
	toolModel  model.BaseChatModel
	plainModel model.BaseChatModel
	opts       Options
}

// New binds the dispatcher's tools to chatModel.
func New(chatModel model.ToolCallingChatModel, store *session.Store, dispatcher *tools.Dispatcher, opts Options) (*Assistant, error) {
	bound, err := chatModel.WithTools(dispatcher.Infos())
	if err != nil {
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	if opts.MaxToolRounds < 1 {
		opts.MaxToolRounds = 1
	}

	return &Assistant{
		store:      store,
		dispatcher: dispatcher,
		toolModel:  bound,
		plainModel: chatModel,
		opts:       opts,
	}, nil
}

// Reply appends text to the session, lets the model call tools, and returns
// the final assistant text. An error from the first model call is returned;
// later failures become the reply text so the history stays well formed.
func (a *Assistant) Reply(ctx context.Context, sessionID, text string) (reply string, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	started := time.Now()
	defer func() { a.opts.Metrics.Turn(started, err) }()

	sess := a.store.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	ctx = calendar.WithLedger(ctx, sess.Ledger)
	logger := slog.With("session", sessionID)

	sess.Append(schema.UserMessage(text))

	msg, err := a.toolModel.Generate(ctx, sess.Messages())
	if err != nil {
		// Close the turn so the history keeps alternating user and assistant.
		sess.Append(schema.AssistantMessage(a.FailureText(err), nil))
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	for round := 1; len(msg.ToolCalls) > 0; round++ {
		results := a.dispatcher.Dispatch(ctx, msg)
		sess.Append(msg)
		sess.Append(results...)
		logger.Debug("tool round finished", "round", round, "calls", len(results))

		next := a.toolModel
		if round >= a.opts.MaxToolRounds {
			next = a.plainModel
		}

		msg, err = next.Generate(ctx, sess.Messages())
		if err != nil {
			logger.Error("model failed after tool round", "round", round, "err", err)
			msg = schema.AssistantMessage(a.FailureText(err), nil)
			break
		}

		if round >= a.opts.MaxToolRounds && len(msg.ToolCalls) > 0 {
			logger.Warn("tool round limit reached, dropping further calls", "calls", len(msg.ToolCalls))
			msg = schema.AssistantMessage(msg.Content, nil)
			if strings.TrimSpace(msg.Content) == "" {
				msg.Content = a.opts.Apology
			}
			break
		}
	}

	sess.Append(msg)
	logger.Info("turn complete", "elapsed", time.Since(started), "reply_len", len(msg.Content))
	return msg.Content, nil
}

// History exposes the session transcript for debugging.
func (a *Assistant) History(sessionID string) ([]*schema.Message, error) {
	return a.store.History(sessionID)
}

// FailureText renders err the way the assistant words failures.
func (a *Assistant) FailureText(err error) string {
	if a.opts.Apology == "" {
		return "ERROR: " + err.Error()
	}
	return fmt.Sprintf("%s (ERROR: %v)", a.opts.Apology, err)
}
