package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
)

func seedEvent(t *testing.T, store storage.Storage) {
	t.Helper()
	ctx := context.Background()
	next := time.Date(2025, 9, 3, 0, 0, 0, 0, taipei)
	event := &models.Event{
		ID:           "e1",
		Name:         "晨跑",
		UserID:       "u1",
		LastDoneAt:   time.Date(2025, 8, 27, 0, 0, 0, 0, taipei),
		Reminder:     true,
		Cycle:        &models.Cycle{Count: 1, Unit: models.UnitWeek},
		NextReminder: &next,
		Active:       true,
	}
	if err := store.CreateEvent(ctx, event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	for _, d := range []int{20, 27} {
		c := &models.Completion{ID: "r", EventID: "e1", UserID: "u1", DoneAt: time.Date(2025, 8, d, 0, 0, 0, 0, taipei)}
		if err := store.RecordCompletion(ctx, c); err != nil {
			t.Fatalf("RecordCompletion: %v", err)
		}
	}
}

func TestFindEventChatFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	e := newTestEngine(t, store)
	seedEvent(t, store)

	if _, err := e.StartFindEvent(ctx, "u1"); err != nil {
		t.Fatalf("StartFindEvent: %v", err)
	}
	reply := send(t, e, store, "晨跑")
	assertNoOngoingChat(t, store)

	summary, ok := reply.(models.TemplatePrompt)
	if !ok {
		t.Fatalf("reply = %T, want TemplatePrompt", reply)
	}
	text := strings.Join(summary.Lines, "\n")
	for _, want := range []string{"1 week", "2025-09-03", "✅ 2025-08-27\n✅ 2025-08-20"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary %q missing %q", text, want)
		}
	}
}

func TestFindEventChatNotFoundCompletesChat(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	e := newTestEngine(t, store)

	if _, err := e.StartFindEvent(ctx, "u1"); err != nil {
		t.Fatalf("StartFindEvent: %v", err)
	}
	_, err := e.Handle(ctx, ongoing(t, store), "游泳")
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindNotFound || derr.Reply == nil {
		t.Fatalf("Handle error = %v, want not found with reply", err)
	}
	assertNoOngoingChat(t, store)
}

func TestFindEventChatInvalidNameKeepsChat(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	e := newTestEngine(t, store)

	if _, err := e.StartFindEvent(ctx, "u1"); err != nil {
		t.Fatalf("StartFindEvent: %v", err)
	}
	if _, err := e.Handle(ctx, ongoing(t, store), "晨跑!"); KindOf(err) != KindValidation {
		t.Fatalf("Handle error = %v, want validation", err)
	}
	if step := ongoing(t, store).Step; step != models.FindEventInputName {
		t.Errorf("step = %q, want %q", step, models.FindEventInputName)
	}
}
