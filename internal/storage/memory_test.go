package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
)

func newChat(id, userID string) *models.Chat {
	return &models.Chat{
		ID:      id,
		UserID:  userID,
		Type:    models.ChatTypeNewEvent,
		Step:    models.NewEventInputName,
		Payload: &models.NewEventPayload{},
		Status:  models.ChatStatusOngoing,
	}
}

func TestMemoryStorageOneOngoingChatPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if err := s.CreateChat(ctx, newChat("c1", "u1")); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if err := s.CreateChat(ctx, newChat("c2", "u1")); !errors.Is(err, ErrConflict) {
		t.Fatalf("second CreateChat error = %v, want ErrConflict", err)
	}
	if err := s.CreateChat(ctx, newChat("c3", "u2")); err != nil {
		t.Fatalf("CreateChat for other user: %v", err)
	}
}

func TestMemoryStorageUpdateChatVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if err := s.CreateChat(ctx, newChat("c1", "u1")); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	first, err := s.FindOngoingChat(ctx, "u1")
	if err != nil {
		t.Fatalf("FindOngoingChat: %v", err)
	}
	second, err := s.FindOngoingChat(ctx, "u1")
	if err != nil {
		t.Fatalf("FindOngoingChat: %v", err)
	}

	first.Step = models.NewEventInputStartDate
	first.NewEvent().EventName = "晨跑"
	if err := s.UpdateChat(ctx, first); err != nil {
		t.Fatalf("UpdateChat: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after update = %d, want 2", first.Version)
	}

	second.Finish(models.ChatStatusAborted)
	if err := s.UpdateChat(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale UpdateChat error = %v, want ErrConflict", err)
	}

	got, err := s.FindOngoingChat(ctx, "u1")
	if err != nil {
		t.Fatalf("FindOngoingChat: %v", err)
	}
	if got.Step != models.NewEventInputStartDate || got.NewEvent().EventName != "晨跑" {
		t.Errorf("stored chat = %+v, want first writer's transition", got)
	}
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if err := s.CreateChat(ctx, newChat("c1", "u1")); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	chat, _ := s.FindOngoingChat(ctx, "u1")
	chat.NewEvent().EventName = "changed"

	again, _ := s.FindOngoingChat(ctx, "u1")
	if again.NewEvent().EventName != "" {
		t.Errorf("mutating a loaded chat leaked into storage")
	}
}

func TestMemoryStorageWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if err := s.CreateUser(ctx, &models.User{ID: "u1", Active: true}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateEvent(ctx, &models.Event{ID: "e1", Name: "晨跑", UserID: "u1"}); err != nil {
			return err
		}
		if err := tx.IncrementUserEventCount(ctx, "u1", 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	if _, err := s.FindEventIDByName(ctx, "u1", "晨跑"); !errors.Is(err, ErrNotFound) {
		t.Errorf("event survived rollback: %v", err)
	}
	user, _ := s.GetUser(ctx, "u1")
	if user.EventCount != 0 {
		t.Errorf("event count = %d after rollback, want 0", user.EventCount)
	}
}

func TestMemoryStorageDuplicateEventName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if err := s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "晨跑", UserID: "u1"}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := s.CreateEvent(ctx, &models.Event{ID: "e2", Name: "晨跑", UserID: "u1"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate CreateEvent error = %v, want ErrDuplicate", err)
	}
	if err := s.CreateEvent(ctx, &models.Event{ID: "e3", Name: "晨跑", UserID: "u2"}); err != nil {
		t.Fatalf("same name for another owner: %v", err)
	}
}

func TestMemoryStorageRecentCompletions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if err := s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "晨跑", UserID: "u1"}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []int{3, 1, 5, 2, 4} {
		c := &models.Completion{ID: "r", EventID: "e1", UserID: "u1", DoneAt: base.AddDate(0, 0, d)}
		if err := s.RecordCompletion(ctx, c); err != nil {
			t.Fatalf("RecordCompletion: %v", err)
		}
	}

	got, err := s.RecentCompletions(ctx, "e1", 3)
	if err != nil {
		t.Fatalf("RecentCompletions: %v", err)
	}
	want := []time.Time{base.AddDate(0, 0, 5), base.AddDate(0, 0, 4), base.AddDate(0, 0, 3)}
	if len(got) != len(want) {
		t.Fatalf("got %d completions, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("completion[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMemoryStorageSetUserActiveTogglesEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	_ = s.CreateUser(ctx, &models.User{ID: "u1", Active: true})
	_ = s.CreateEvent(ctx, &models.Event{ID: "e1", Name: "晨跑", UserID: "u1", Active: true})

	if err := s.SetUserActive(ctx, "u1", false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	user, _ := s.GetUser(ctx, "u1")
	event, _ := s.GetEvent(ctx, "e1")
	if user.Active || event.Active {
		t.Errorf("user active = %v, event active = %v, want both false", user.Active, event.Active)
	}
	if err := s.SetUserActive(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetUserActive(missing) error = %v, want ErrNotFound", err)
	}
}
