package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/routine-bot/internal/messages"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/recurrence"
	"github.com/xaenox/routine-bot/internal/storage"
	"go.uber.org/zap"
)

var (
	reminderOnTokens  = []string{messages.ReminderOn, "yes", "y"}
	reminderOffTokens = []string{messages.ReminderOff, "no", "n"}
)

func (e *Engine) handleNewEvent(ctx context.Context, chat *models.Chat, text string) (models.Outbound, error) {
	p := chat.NewEvent()
	if p.StartDate != nil {
		// a payload read back from storage carries a fixed offset, not the zone
		start := recurrence.Truncate(*p.StartDate, e.cfg.Location)
		p.StartDate = &start
	}

	switch chat.Step {
	case models.NewEventInputName:
		if err := e.checkNewEventName(ctx, chat.UserID, text); err != nil {
			e.logger.Debug("Rejected event name", zap.String("chat_id", chat.ID), zap.String("event_name", text), zap.Error(err))
			return nil, err
		}
		p.EventName = text
		chat.Step = models.NewEventInputStartDate
		if err := e.save(ctx, chat); err != nil {
			return nil, err
		}
		e.logger.Info("Added to chat payload", zap.String("chat_id", chat.ID), zap.String("event_name", text))
		return messages.PromptStartDate(text), nil

	case models.NewEventInputStartDate:
		start, err := e.parseStartDate(text)
		if err != nil {
			e.logger.Debug("Rejected start date", zap.String("chat_id", chat.ID), zap.String("input", text))
			return nil, newError(KindValidation, messages.InvalidStartDate(p.EventName), err)
		}
		p.StartDate = &start
		chat.Step = models.NewEventInputToggleReminder
		if err := e.save(ctx, chat); err != nil {
			return nil, err
		}
		e.logger.Info("Added to chat payload", zap.String("chat_id", chat.ID), zap.Time("start_date", start))
		return messages.PromptToggleReminder(p.EventName, start), nil

	case models.NewEventInputToggleReminder:
		if p.StartDate == nil {
			return nil, fmt.Errorf("chat %s: start date missing at %s", chat.ID, chat.Step)
		}
		switch {
		case matchToken(text, reminderOnTokens):
			on := true
			p.Reminder = &on
			chat.Step = models.NewEventInputReminderCycle
			if err := e.save(ctx, chat); err != nil {
				return nil, err
			}
			e.logger.Info("Added to chat payload", zap.String("chat_id", chat.ID), zap.Bool("reminder", true))
			return messages.PromptReminderCycle(p.EventName, *p.StartDate), nil
		case matchToken(text, reminderOffTokens):
			off := false
			p.Reminder = &off
			return e.finalizeNewEvent(ctx, chat)
		}
		return nil, newError(KindValidation, messages.InvalidToggleReminder(p.EventName, *p.StartDate),
			fmt.Errorf("invalid reminder toggle %q", text))

	case models.NewEventInputReminderCycle:
		if p.StartDate == nil {
			return nil, fmt.Errorf("chat %s: start date missing at %s", chat.ID, chat.Step)
		}
		if strings.EqualFold(text, messages.CycleExample) {
			return messages.ReminderCycleExample(), nil
		}
		cycle, err := recurrence.ParseCycle(text)
		if err == nil && cycle.Count < 1 {
			err = fmt.Errorf("%w: count must be positive, got %d", recurrence.ErrInvalidCycle, cycle.Count)
		}
		if err != nil {
			e.logger.Debug("Rejected reminder cycle", zap.String("chat_id", chat.ID), zap.String("input", text))
			return nil, newError(KindValidation, messages.InvalidReminderCycle(p.EventName, *p.StartDate), err)
		}
		p.Cycle = &cycle
		return e.finalizeNewEvent(ctx, chat)
	}

	return nil, fmt.Errorf("chat %s: unknown new event step %q", chat.ID, chat.Step)
}

// parseStartDate accepts typed dates as well as date picker values.
func (e *Engine) parseStartDate(text string) (time.Time, error) {
	if len(text) == len(recurrence.PickerLayout) && strings.Count(text, "-") == 2 {
		return recurrence.ParsePickerDate(text, e.cfg.Location)
	}
	now := e.now()
	return recurrence.ParseDate(text, now.Year(), now, e.cfg.Location)
}

// finalizeNewEvent completes the chat and creates the event with its first
// completion record in one transaction.
func (e *Engine) finalizeNewEvent(ctx context.Context, chat *models.Chat) (models.Outbound, error) {
	p := chat.NewEvent()
	reminder := p.Reminder != nil && *p.Reminder

	event := &models.Event{
		ID:         uuid.New().String(),
		Name:       p.EventName,
		UserID:     chat.UserID,
		LastDoneAt: *p.StartDate,
		Reminder:   reminder,
		Active:     true,
	}
	if reminder {
		if p.Cycle == nil {
			return nil, fmt.Errorf("chat %s: reminder enabled without a cycle", chat.ID)
		}
		cycle := *p.Cycle
		next := recurrence.Next(*p.StartDate, cycle)
		event.Cycle = &cycle
		event.NextReminder = &next
	}
	completion := &models.Completion{
		ID:        uuid.New().String(),
		EventID:   event.ID,
		EventName: event.Name,
		UserID:    chat.UserID,
		DoneAt:    event.LastDoneAt,
	}

	chat.Finish(models.ChatStatusCompleted)
	err := e.store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.UpdateChat(ctx, chat); err != nil {
			return err
		}
		if err := tx.CreateEvent(ctx, event); err != nil {
			return err
		}
		if err := tx.RecordCompletion(ctx, completion); err != nil {
			return err
		}
		return tx.IncrementUserEventCount(ctx, chat.UserID, 1)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, newError(KindConflict, messages.EventNameDuplicated(event.Name), err)
		}
		return nil, storageError(err)
	}

	fields := []zap.Field{
		zap.String("chat_id", chat.ID),
		zap.String("user_id", chat.UserID),
		zap.String("event_id", event.ID),
		zap.String("event_name", event.Name),
		zap.Bool("reminder", event.Reminder),
	}
	if event.NextReminder != nil {
		fields = append(fields, zap.String("next_reminder", event.NextReminder.Format("2006-01-02")))
	}
	e.logger.Info("Chat completed, event created", fields...)
	return messages.EventCreated(event), nil
}

func matchToken(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.EqualFold(text, t) {
			return true
		}
	}
	return false
}
