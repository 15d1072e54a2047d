// Package dialogue runs the multi-turn conversations that create and look up
// events. Every turn reloads and saves through storage; the engine keeps no
// state of its own between turns.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xaenox/routine-bot/internal/messages"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
	"github.com/xaenox/routine-bot/internal/validate"
	"go.uber.org/zap"
)

// AbortCommand ends any ongoing chat.
const AbortCommand = "/abort"

const defaultRecentCompletions = 5

type Config struct {
	// Location is the timezone dates are interpreted and truncated in.
	Location          *time.Location
	RecentCompletions int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Engine struct {
	store  storage.Storage
	cfg    Config
	logger *zap.Logger
}

func NewEngine(store storage.Storage, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RecentCompletions <= 0 {
		cfg.RecentCompletions = defaultRecentCompletions
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{store: store, cfg: cfg, logger: logger}
}

func (e *Engine) now() time.Time {
	return e.cfg.Now().In(e.cfg.Location)
}

// Handle feeds text into an ongoing chat. A rejected input comes back as an
// *Error and leaves the stored chat untouched; chat itself is never modified.
func (e *Engine) Handle(ctx context.Context, chat *models.Chat, text string) (models.Outbound, error) {
	if text == AbortCommand {
		return e.Abort(ctx, chat)
	}
	if chat.Status != models.ChatStatusOngoing {
		return nil, fmt.Errorf("chat %s is %s", chat.ID, chat.Status)
	}

	e.logger.Debug("Handling chat turn",
		zap.String("chat_id", chat.ID),
		zap.String("chat_type", string(chat.Type)),
		zap.String("step", string(chat.Step)))

	next := chat.Clone()
	switch next.Type {
	case models.ChatTypeNewEvent:
		return e.handleNewEvent(ctx, next, text)
	case models.ChatTypeFindEvent:
		return e.handleFindEvent(ctx, next, text)
	}
	return nil, fmt.Errorf("chat %s has unknown type %q", chat.ID, chat.Type)
}

// Abort marks an ongoing chat as aborted.
func (e *Engine) Abort(ctx context.Context, chat *models.Chat) (models.Outbound, error) {
	if chat.Status != models.ChatStatusOngoing {
		return nil, fmt.Errorf("chat %s is %s", chat.ID, chat.Status)
	}
	next := chat.Clone()
	next.Finish(models.ChatStatusAborted)
	if err := e.store.UpdateChat(ctx, next); err != nil {
		return nil, storageError(err)
	}
	e.logger.Info("Chat aborted", zap.String("chat_id", chat.ID), zap.String("user_id", chat.UserID))
	return messages.Aborted(), nil
}

// StartNewEvent opens a new event chat. A non-empty name is validated and
// pre-filled so the chat starts at the start date step; otherwise the chat
// asks for the name first.
func (e *Engine) StartNewEvent(ctx context.Context, userID, name string) (models.Outbound, error) {
	chat := newChat(userID, models.ChatTypeNewEvent, models.NewEventInputName)
	reply := messages.PromptEventName()

	if name != "" {
		if err := e.checkNewEventName(ctx, userID, name); err != nil {
			return nil, err
		}
		chat.NewEvent().EventName = name
		chat.Step = models.NewEventInputStartDate
		reply = messages.PromptStartDate(name)
	}

	if err := e.store.CreateChat(ctx, chat); err != nil {
		return nil, storageError(err)
	}
	e.logger.Info("Chat created",
		zap.String("chat_id", chat.ID),
		zap.String("user_id", userID),
		zap.String("chat_type", string(chat.Type)),
		zap.String("step", string(chat.Step)))
	return reply, nil
}

// StartFindEvent opens a find event chat asking for the event name.
func (e *Engine) StartFindEvent(ctx context.Context, userID string) (models.Outbound, error) {
	chat := newChat(userID, models.ChatTypeFindEvent, models.FindEventInputName)
	if err := e.store.CreateChat(ctx, chat); err != nil {
		return nil, storageError(err)
	}
	e.logger.Info("Chat created",
		zap.String("chat_id", chat.ID),
		zap.String("user_id", userID),
		zap.String("chat_type", string(chat.Type)))
	return messages.PromptFindEventName(), nil
}

// checkNewEventName rejects invalid names and names the user already owns.
func (e *Engine) checkNewEventName(ctx context.Context, userID, name string) error {
	if err := validate.EventName(name); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			return newError(KindValidation, messages.InvalidEventName(verr), err)
		}
		return err
	}

	_, err := e.store.FindEventIDByName(ctx, userID, name)
	switch {
	case err == nil:
		return newError(KindConflict, messages.EventNameDuplicated(name),
			fmt.Errorf("event name %q already used by %s", name, userID))
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return storageError(err)
	}
}

func (e *Engine) save(ctx context.Context, chat *models.Chat) error {
	if err := e.store.UpdateChat(ctx, chat); err != nil {
		return storageError(err)
	}
	return nil
}
