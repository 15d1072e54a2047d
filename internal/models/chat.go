package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type ChatType string

const (
	ChatTypeNewEvent  ChatType = "new_event"
	ChatTypeFindEvent ChatType = "find_event"
)

type ChatStatus string

const (
	ChatStatusOngoing   ChatStatus = "ongoing"
	ChatStatusCompleted ChatStatus = "completed"
	ChatStatusAborted   ChatStatus = "aborted"
)

// Step is the position inside a chat type's dialogue. StepNone marks a
// terminal chat.
type Step string

const StepNone Step = ""

// New event steps
const (
	NewEventInputName           Step = "input_name"
	NewEventInputStartDate      Step = "input_start_date"
	NewEventInputToggleReminder Step = "input_toggle_reminder"
	NewEventInputReminderCycle  Step = "input_reminder_cycle"
)

// Find event steps
const (
	FindEventInputName Step = "input_name"
)

// Payload holds the fields collected so far by one chat type.
type Payload interface {
	chatType() ChatType
}

// NewEventPayload is filled progressively by the new event dialogue.
type NewEventPayload struct {
	EventName string     `json:"event_name,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	Reminder  *bool      `json:"reminder,omitempty"`
	Cycle     *Cycle     `json:"reminder_cycle,omitempty"`
}

func (*NewEventPayload) chatType() ChatType { return ChatTypeNewEvent }

// FindEventPayload is the payload of the find event dialogue.
type FindEventPayload struct {
	EventName string `json:"event_name,omitempty"`
}

func (*FindEventPayload) chatType() ChatType { return ChatTypeFindEvent }

// Chat is one multi-turn dialogue with a user
type Chat struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      ChatType   `json:"chat_type"`
	Step      Step       `json:"current_step"`
	Payload   Payload    `json:"-"`
	Status    ChatStatus `json:"status"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewEvent returns the payload as a NewEventPayload, creating an empty one if
// needed.
func (c *Chat) NewEvent() *NewEventPayload {
	if p, ok := c.Payload.(*NewEventPayload); ok && p != nil {
		return p
	}
	p := &NewEventPayload{}
	c.Payload = p
	return p
}

// FindEvent returns the payload as a FindEventPayload, creating an empty one
// if needed.
func (c *Chat) FindEvent() *FindEventPayload {
	if p, ok := c.Payload.(*FindEventPayload); ok && p != nil {
		return p
	}
	p := &FindEventPayload{}
	c.Payload = p
	return p
}

// Finish moves the chat to a terminal status and clears its step.
func (c *Chat) Finish(status ChatStatus) {
	c.Status = status
	c.Step = StepNone
}

// Clone returns a deep copy so callers can mutate a chat without touching the
// original snapshot.
func (c *Chat) Clone() *Chat {
	cp := *c
	switch p := c.Payload.(type) {
	case *NewEventPayload:
		np := *p
		if p.StartDate != nil {
			d := *p.StartDate
			np.StartDate = &d
		}
		if p.Reminder != nil {
			r := *p.Reminder
			np.Reminder = &r
		}
		if p.Cycle != nil {
			cy := *p.Cycle
			np.Cycle = &cy
		}
		cp.Payload = &np
	case *FindEventPayload:
		fp := *p
		cp.Payload = &fp
	}
	return &cp
}

// EncodePayload serializes the chat payload for storage.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// DecodePayload restores the payload variant belonging to chatType.
func DecodePayload(chatType ChatType, raw []byte) (Payload, error) {
	var p Payload
	switch chatType {
	case ChatTypeNewEvent:
		p = &NewEventPayload{}
	case ChatTypeFindEvent:
		p = &FindEventPayload{}
	default:
		return nil, fmt.Errorf("unknown chat type %q", chatType)
	}
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", chatType, err)
	}
	return p, nil
}
