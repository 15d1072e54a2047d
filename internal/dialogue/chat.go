package dialogue

import (
	"github.com/google/uuid"
	"github.com/xaenox/routine-bot/internal/models"
)

func newChat(userID string, chatType models.ChatType, step models.Step) *models.Chat {
	chat := &models.Chat{
		ID:     uuid.New().String(),
		UserID: userID,
		Type:   chatType,
		Step:   step,
		Status: models.ChatStatusOngoing,
	}
	switch chatType {
	case models.ChatTypeNewEvent:
		chat.Payload = &models.NewEventPayload{}
	case models.ChatTypeFindEvent:
		chat.Payload = &models.FindEventPayload{}
	}
	return chat
}
