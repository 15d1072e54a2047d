package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
)

// MemoryStorage keeps everything in process memory. It is used for local runs
// and tests.
type MemoryStorage struct {
	mu   sync.RWMutex
	data *memData
}

type memData struct {
	users       map[string]*models.User
	events      map[string]*models.Event
	chats       map[string]*models.Chat
	completions []*models.Completion
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: &memData{
			users:  make(map[string]*models.User),
			events: make(map[string]*models.Event),
			chats:  make(map[string]*models.Chat),
		},
	}
}

// User methods
func (s *MemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetUser(ctx, id)
}

func (s *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateUser(ctx, user)
}

func (s *MemoryStorage) UpdateUserProfile(ctx context.Context, id, displayName, pictureURL string, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateUserProfile(ctx, id, displayName, pictureURL, refreshedAt)
}

func (s *MemoryStorage) SetUserActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SetUserActive(ctx, id, active)
}

func (s *MemoryStorage) IncrementUserEventCount(ctx context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.IncrementUserEventCount(ctx, id, delta)
}

// Chat methods
func (s *MemoryStorage) FindOngoingChat(ctx context.Context, userID string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.FindOngoingChat(ctx, userID)
}

func (s *MemoryStorage) CreateChat(ctx context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateChat(ctx, chat)
}

func (s *MemoryStorage) UpdateChat(ctx context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateChat(ctx, chat)
}

// Event methods
func (s *MemoryStorage) FindEventIDByName(ctx context.Context, userID, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.FindEventIDByName(ctx, userID, name)
}

func (s *MemoryStorage) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetEvent(ctx, id)
}

func (s *MemoryStorage) CreateEvent(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateEvent(ctx, event)
}

func (s *MemoryStorage) RecordCompletion(ctx context.Context, c *models.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RecordCompletion(ctx, c)
}

func (s *MemoryStorage) RecentCompletions(ctx context.Context, eventID string, limit int) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.RecentCompletions(ctx, eventID, limit)
}

// WithTx holds the write lock for the whole of fn and restores a snapshot
// when fn fails.
func (s *MemoryStorage) WithTx(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.data); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func (d *memData) clone() *memData {
	cp := &memData{
		users:       make(map[string]*models.User, len(d.users)),
		events:      make(map[string]*models.Event, len(d.events)),
		chats:       make(map[string]*models.Chat, len(d.chats)),
		completions: make([]*models.Completion, len(d.completions)),
	}
	for k, v := range d.users {
		cp.users[k] = copyUser(v)
	}
	for k, v := range d.events {
		cp.events[k] = copyEvent(v)
	}
	for k, v := range d.chats {
		cp.chats[k] = v.Clone()
	}
	copy(cp.completions, d.completions)
	return cp
}

func (d *memData) GetUser(_ context.Context, id string) (*models.User, error) {
	if user, exists := d.users[id]; exists {
		return copyUser(user), nil
	}
	return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

func (d *memData) CreateUser(_ context.Context, user *models.User) error {
	if _, exists := d.users[user.ID]; exists {
		return fmt.Errorf("user %s: %w", user.ID, ErrDuplicate)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	d.users[user.ID] = copyUser(user)
	return nil
}

func (d *memData) UpdateUserProfile(_ context.Context, id, displayName, pictureURL string, refreshedAt time.Time) error {
	user, exists := d.users[id]
	if !exists {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user.DisplayName = displayName
	user.PictureURL = pictureURL
	user.ProfileRefreshedAt = refreshedAt
	return nil
}

func (d *memData) SetUserActive(_ context.Context, id string, active bool) error {
	user, exists := d.users[id]
	if !exists {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user.Active = active
	for _, e := range d.events {
		if e.UserID == id {
			e.Active = active
		}
	}
	return nil
}

func (d *memData) IncrementUserEventCount(_ context.Context, id string, delta int) error {
	user, exists := d.users[id]
	if !exists {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user.EventCount += delta
	return nil
}

func (d *memData) FindOngoingChat(_ context.Context, userID string) (*models.Chat, error) {
	for _, c := range d.chats {
		if c.UserID == userID && c.Status == models.ChatStatusOngoing {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("ongoing chat of %s: %w", userID, ErrNotFound)
}

func (d *memData) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat.Status == models.ChatStatusOngoing {
		if _, err := d.FindOngoingChat(ctx, chat.UserID); err == nil {
			return fmt.Errorf("user %s already has an ongoing chat: %w", chat.UserID, ErrConflict)
		}
	}
	if _, exists := d.chats[chat.ID]; exists {
		return fmt.Errorf("chat %s: %w", chat.ID, ErrDuplicate)
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	chat.Version = 1
	d.chats[chat.ID] = chat.Clone()
	return nil
}

func (d *memData) UpdateChat(_ context.Context, chat *models.Chat) error {
	stored, exists := d.chats[chat.ID]
	if !exists {
		return fmt.Errorf("chat %s: %w", chat.ID, ErrNotFound)
	}
	if stored.Version != chat.Version {
		return fmt.Errorf("chat %s at version %d, have %d: %w", chat.ID, stored.Version, chat.Version, ErrConflict)
	}
	chat.Version++
	d.chats[chat.ID] = chat.Clone()
	return nil
}

func (d *memData) FindEventIDByName(_ context.Context, userID, name string) (string, error) {
	for _, e := range d.events {
		if e.UserID == userID && e.Name == name {
			return e.ID, nil
		}
	}
	return "", fmt.Errorf("event %q of %s: %w", name, userID, ErrNotFound)
}

func (d *memData) GetEvent(_ context.Context, id string) (*models.Event, error) {
	if e, exists := d.events[id]; exists {
		return copyEvent(e), nil
	}
	return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
}

func (d *memData) CreateEvent(ctx context.Context, event *models.Event) error {
	if _, err := d.FindEventIDByName(ctx, event.UserID, event.Name); err == nil {
		return fmt.Errorf("event %q of %s: %w", event.Name, event.UserID, ErrDuplicate)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	d.events[event.ID] = copyEvent(event)
	return nil
}

func (d *memData) RecordCompletion(_ context.Context, c *models.Completion) error {
	if _, exists := d.events[c.EventID]; !exists {
		return fmt.Errorf("event %s: %w", c.EventID, ErrNotFound)
	}
	cp := *c
	d.completions = append(d.completions, &cp)
	return nil
}

func (d *memData) RecentCompletions(_ context.Context, eventID string, limit int) ([]time.Time, error) {
	var times []time.Time
	for _, c := range d.completions {
		if c.EventID == eventID {
			times = append(times, c.DoneAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	if limit > 0 && len(times) > limit {
		times = times[:limit]
	}
	return times, nil
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.PremiumUntil != nil {
		t := *u.PremiumUntil
		cp.PremiumUntil = &t
	}
	return &cp
}

func copyEvent(e *models.Event) *models.Event {
	cp := *e
	if e.Cycle != nil {
		c := *e.Cycle
		cp.Cycle = &c
	}
	if e.NextReminder != nil {
		t := *e.NextReminder
		cp.NextReminder = &t
	}
	return &cp
}
