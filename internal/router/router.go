// Package router turns an inbound message into a reply: it continues the
// user's ongoing chat or interprets the message as a command.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/routine-bot/internal/dialogue"
	"github.com/xaenox/routine-bot/internal/messages"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
	"github.com/xaenox/routine-bot/internal/validate"
	"go.uber.org/zap"
)

const (
	CommandNew   = "/new"
	CommandFind  = "/find"
	CommandAbort = dialogue.AbortCommand
	CommandStart = "/start"
	CommandHelp  = "/help"
)

// KnownCommands is the command vocabulary.
var KnownCommands = []string{CommandNew, CommandFind, CommandAbort, CommandStart, CommandHelp}

const defaultFreePlanMaxEvents = 5

type Config struct {
	FreePlanMaxEvents int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Router struct {
	store  storage.Storage
	engine *dialogue.Engine
	cfg    Config
	logger *zap.Logger
}

func New(store storage.Storage, engine *dialogue.Engine, cfg Config, logger *zap.Logger) *Router {
	if cfg.FreePlanMaxEvents <= 0 {
		cfg.FreePlanMaxEvents = defaultFreePlanMaxEvents
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Router{store: store, engine: engine, cfg: cfg, logger: logger}
}

// Route handles one message from userID. It always produces a reply; failures
// are logged and turned into user-facing messages.
func (r *Router) Route(ctx context.Context, userID, text string) models.Outbound {
	reply, err := r.route(ctx, userID, text)
	if err != nil {
		return r.replyForError(userID, err)
	}
	return reply
}

func (r *Router) route(ctx context.Context, userID, text string) (models.Outbound, error) {
	r.logger.Debug("Message received", zap.String("user_id", userID), zap.String("text", text))
	if text == "" {
		return messages.Greeting(), nil
	}

	command, arg := splitCommand(text)

	chat, err := r.store.FindOngoingChat(ctx, userID)
	switch {
	case err == nil:
		r.logger.Debug("Ongoing chat found",
			zap.String("chat_id", chat.ID),
			zap.String("chat_type", string(chat.Type)),
			zap.String("step", string(chat.Step)))
		if command == CommandAbort {
			return r.engine.Abort(ctx, chat)
		}
		return r.engine.Handle(ctx, chat, text)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("error loading ongoing chat: %w", err)
	}

	if command == CommandAbort {
		return messages.NothingToAbort(), nil
	}
	if !validate.IsCommand(text) {
		return messages.Greeting(), nil
	}
	if err := validate.Command(command, KnownCommands); err != nil {
		return nil, &dialogue.Error{Kind: dialogue.KindValidation, Reply: messages.UnrecognizedCommand(), Err: err}
	}

	switch command {
	case CommandNew:
		if err := r.checkEventLimit(ctx, userID); err != nil {
			return nil, err
		}
		return r.engine.StartNewEvent(ctx, userID, arg)
	case CommandFind:
		if arg == "" {
			return r.engine.StartFindEvent(ctx, userID)
		}
		if err := validate.EventName(arg); err != nil {
			var verr *validate.Error
			if errors.As(err, &verr) {
				return nil, &dialogue.Error{Kind: dialogue.KindValidation, Reply: messages.InvalidEventName(verr), Err: err}
			}
			return nil, err
		}
		return r.engine.FindEvent(ctx, userID, arg)
	case CommandStart, CommandHelp:
		return messages.Help(), nil
	}
	return nil, fmt.Errorf("command %q has no handler", command)
}

// checkEventLimit blocks event creation for free users at the plan cap.
func (r *Router) checkEventLimit(ctx context.Context, userID string) error {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}
	if user.EventCount >= r.cfg.FreePlanMaxEvents && !user.HasPremiumAccess(r.cfg.Now()) {
		return &dialogue.Error{
			Kind:  dialogue.KindResourceLimit,
			Reply: messages.MaxEventsReached(r.cfg.FreePlanMaxEvents),
			Err:   fmt.Errorf("user %s owns %d events", userID, user.EventCount),
		}
	}
	return nil
}

func (r *Router) replyForError(userID string, err error) models.Outbound {
	var derr *dialogue.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case dialogue.KindStorage:
			r.logger.Error("Turn failed", zap.String("user_id", userID), zap.Error(err))
		case dialogue.KindConflict:
			r.logger.Warn("Turn conflicted", zap.String("user_id", userID), zap.Error(err))
		default:
			r.logger.Debug("Turn rejected", zap.String("user_id", userID), zap.Stringer("kind", derr.Kind), zap.Error(err))
		}
		if derr.Reply != nil {
			return derr.Reply
		}
		return messages.TryAgain()
	}
	if errors.Is(err, storage.ErrConflict) {
		r.logger.Warn("Turn conflicted", zap.String("user_id", userID), zap.Error(err))
		return messages.Conflict()
	}
	r.logger.Error("Turn failed", zap.String("user_id", userID), zap.Error(err))
	return messages.TryAgain()
}

// splitCommand returns the first token, without a Telegram style @bot
// suffix, and the trimmed remainder of text.
func splitCommand(text string) (string, string) {
	command, arg := text, ""
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		command, arg = text[:i], strings.TrimSpace(text[i+1:])
	}
	if strings.HasPrefix(command, "/") {
		if at := strings.IndexByte(command, '@'); at > 0 {
			command = command[:at]
		}
	}
	return command, arg
}
