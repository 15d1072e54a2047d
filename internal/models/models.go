package models

import "time"

// User represents a bot user with their profile and plan
type User struct {
	ID                 string     `json:"id" db:"user_id"`
	DisplayName        string     `json:"display_name" db:"display_name"`
	PictureURL         string     `json:"picture_url" db:"picture_url"`
	ProfileRefreshedAt time.Time  `json:"profile_refreshed_at" db:"profile_refreshed_at"`
	EventCount         int        `json:"event_count" db:"event_count"`
	IsPremium          bool       `json:"is_premium" db:"is_premium"`
	PremiumUntil       *time.Time `json:"premium_until,omitempty" db:"premium_until"`
	Active             bool       `json:"active" db:"is_active"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// HasPremiumAccess reports whether the premium plan is still valid at now.
func (u *User) HasPremiumAccess(now time.Time) bool {
	return u.PremiumUntil != nil && u.PremiumUntil.After(now)
}

// Event represents a recurring or one-off habit
type Event struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	UserID       string     `json:"user_id"`
	LastDoneAt   time.Time  `json:"last_done_at"`
	Reminder     bool       `json:"reminder"`
	Cycle        *Cycle     `json:"reminder_cycle,omitempty"`
	NextReminder *time.Time `json:"next_reminder,omitempty"`
	ShareCount   int        `json:"share_count"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Completion is one entry of the append-only completion log
type Completion struct {
	ID        string    `json:"id" db:"update_id"`
	EventID   string    `json:"event_id" db:"event_id"`
	EventName string    `json:"event_name" db:"event_name"`
	UserID    string    `json:"user_id" db:"user_id"`
	DoneAt    time.Time `json:"done_at" db:"done_at"`
}
