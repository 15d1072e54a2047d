package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/routine-bot/internal/messages"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
	"github.com/xaenox/routine-bot/internal/validate"
	"go.uber.org/zap"
)

func (e *Engine) handleFindEvent(ctx context.Context, chat *models.Chat, text string) (models.Outbound, error) {
	switch chat.Step {
	case models.FindEventInputName:
		if err := validate.EventName(text); err != nil {
			var verr *validate.Error
			if errors.As(err, &verr) {
				return nil, newError(KindValidation, messages.InvalidEventName(verr), err)
			}
			return nil, err
		}

		reply, lookupErr := e.FindEvent(ctx, chat.UserID, text)
		if lookupErr != nil && KindOf(lookupErr) != KindNotFound {
			return nil, lookupErr
		}

		// a miss still ends the chat so the user is not stuck in it
		chat.FindEvent().EventName = text
		chat.Finish(models.ChatStatusCompleted)
		if err := e.save(ctx, chat); err != nil {
			return nil, err
		}
		e.logger.Info("Chat completed", zap.String("chat_id", chat.ID), zap.String("event_name", text))
		return reply, lookupErr
	}

	return nil, fmt.Errorf("chat %s: unknown find event step %q", chat.ID, chat.Step)
}

// FindEvent looks up the user's event by name and renders its summary. A
// miss is reported as a KindNotFound *Error.
func (e *Engine) FindEvent(ctx context.Context, userID, name string) (models.Outbound, error) {
	eventID, err := e.store.FindEventIDByName(ctx, userID, name)
	if errors.Is(err, storage.ErrNotFound) {
		e.logger.Info("Event name not found", zap.String("user_id", userID), zap.String("event_name", name))
		return nil, newError(KindNotFound, messages.EventNotFound(name), err)
	}
	if err != nil {
		return nil, storageError(err)
	}

	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storageError(err)
	}
	recent, err := e.store.RecentCompletions(ctx, eventID, e.cfg.RecentCompletions)
	if err != nil {
		return nil, storageError(err)
	}
	e.logger.Info("Event found", zap.String("user_id", userID), zap.String("event_id", eventID))
	return messages.EventSummary(event, recent, e.cfg.Location), nil
}
