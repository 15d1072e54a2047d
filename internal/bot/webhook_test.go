package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
	"github.com/xaenox/routine-bot/pkg/config"
	"go.uber.org/zap"
)

func newWebhookBot(store storage.Storage) *Bot {
	return &Bot{
		api:    &tgbotapi.BotAPI{},
		cfg:    config.TelegramConfig{Mode: config.ModeWebhook, WebhookSecret: "s3cret"},
		users:  newTestRegistry(store, &fakeProfiles{}, time.Now()),
		logger: zap.NewNop(),
	}
}

func TestWebhookHealthz(t *testing.T) {
	b := newWebhookBot(storage.NewMemoryStorage())
	rec := httptest.NewRecorder()
	b.webhookHandler(context.Background()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	b := newWebhookBot(storage.NewMemoryStorage())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/guess", strings.NewReader(`{"update_id":1}`))
	b.webhookHandler(context.Background()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("POST with wrong secret = %d, want 404", rec.Code)
	}
}

func TestWebhookRejectsMalformedUpdate(t *testing.T) {
	b := newWebhookBot(storage.NewMemoryStorage())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/s3cret", strings.NewReader(`{not json`))
	b.webhookHandler(context.Background()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST malformed = %d, want 400", rec.Code)
	}
}

func TestWebhookBlockDeactivatesUser(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	if err := store.CreateUser(ctx, &models.User{ID: "1001", ProfileRefreshedAt: time.Now(), Active: true}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateEvent(ctx, &models.Event{ID: "e1", Name: "跑步", UserID: "1001", Active: true}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	b := newWebhookBot(store)

	body := `{
		"update_id": 2,
		"my_chat_member": {
			"chat": {"id": 1001, "type": "private"},
			"from": {"id": 1001, "first_name": "Alice"},
			"date": 1724720000,
			"old_chat_member": {"user": {"id": 42, "is_bot": true, "first_name": "bot"}, "status": "member"},
			"new_chat_member": {"user": {"id": 42, "is_bot": true, "first_name": "bot"}, "status": "kicked"}
		}
	}`
	rec := httptest.NewRecorder()
	b.webhookHandler(ctx).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/s3cret", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST = %d, want 200", rec.Code)
	}
	b.handlers.Wait()

	user, err := store.GetUser(ctx, "1001")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.Active {
		t.Errorf("user still active after block")
	}
	event, err := store.GetEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if event.Active {
		t.Errorf("event still active after block")
	}
}
