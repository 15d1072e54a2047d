package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
)

var (
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned when a chat was modified since it was loaded or
	// when the user already has an ongoing chat.
	ErrConflict = errors.New("storage: conflict")
	// ErrDuplicate is returned when an event name is already used by its owner.
	ErrDuplicate = errors.New("storage: duplicate")
)

// Store holds users, events, completions and chats.
type Store interface {
	UserStorage
	ChatStorage
	EventStorage
}

type UserStorage interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserProfile(ctx context.Context, id, displayName, pictureURL string, refreshedAt time.Time) error
	// SetUserActive flips the user's active flag together with all of the
	// user's events.
	SetUserActive(ctx context.Context, id string, active bool) error
	IncrementUserEventCount(ctx context.Context, id string, delta int) error
}

type ChatStorage interface {
	// FindOngoingChat returns ErrNotFound when the user has no ongoing chat.
	FindOngoingChat(ctx context.Context, userID string) (*models.Chat, error)
	// CreateChat fails with ErrConflict if the user already has an ongoing chat.
	CreateChat(ctx context.Context, chat *models.Chat) error
	// UpdateChat saves chat if its Version matches the stored one and bumps
	// chat.Version. A stale version yields ErrConflict.
	UpdateChat(ctx context.Context, chat *models.Chat) error
}

type EventStorage interface {
	// FindEventIDByName returns ErrNotFound when no such event exists.
	FindEventIDByName(ctx context.Context, userID, name string) (string, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	// CreateEvent fails with ErrDuplicate if the owner has a same-named event.
	CreateEvent(ctx context.Context, event *models.Event) error
	RecordCompletion(ctx context.Context, c *models.Completion) error
	// RecentCompletions returns up to limit completion times, newest first.
	RecentCompletions(ctx context.Context, eventID string, limit int) ([]time.Time, error)
}

// Storage is a Store that can run several operations atomically.
type Storage interface {
	Store
	// WithTx runs fn against a transactional view of the store. Nothing fn
	// wrote is kept when it returns an error.
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
