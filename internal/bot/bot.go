package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/routine-bot/internal/messages"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
	"github.com/xaenox/routine-bot/pkg/config"
	"go.uber.org/zap"
)

const (
	memberKicked = "kicked"
	memberJoined = "member"
)

// Router produces exactly one reply for a sanitized inbound text.
type Router interface {
	Route(ctx context.Context, userID, text string) models.Outbound
}

type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    config.TelegramConfig
	router Router
	users  *Registry
	logger *zap.Logger

	// handlers tracks in-flight updates so shutdown can wait for them.
	handlers sync.WaitGroup
}

func New(cfg config.TelegramConfig, router Router, store storage.Storage, profileRefresh time.Duration, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))
	return &Bot{
		api:    api,
		cfg:    cfg,
		router: router,
		users:  NewRegistry(store, telegramProfiles{api: api}, profileRefresh, logger),
		logger: logger,
	}, nil
}

// Start receives updates until ctx is done, by long polling or by serving
// the webhook depending on the configured mode.
func (b *Bot) Start(ctx context.Context) error {
	if b.cfg.Mode == config.ModeWebhook {
		return b.serveWebhook(ctx)
	}
	return b.poll(ctx)
}

func (b *Bot) poll(ctx context.Context) error {
	// getUpdates is refused while a webhook is registered.
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.handlers.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.handlers.Wait()
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch handles update on its own goroutine. Handlers outlive ctx so a
// shutdown does not cut a reply short.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		b.handleUpdate(context.WithoutCancel(ctx), update)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.MyChatMember != nil:
		b.handleMembership(ctx, update.MyChatMember)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	// Get content from message
	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	b.respond(ctx, message.From, message.Chat.ID, content)
}

// handleCallback treats a pressed quick reply button as if the user typed
// the button's text.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback query",
			zap.Error(err),
			zap.String("callback_id", query.ID))
	}
	if query.Message == nil || query.From == nil {
		return
	}

	b.respond(ctx, query.From, query.Message.Chat.ID, query.Data)
}

func (b *Bot) handleMembership(ctx context.Context, update *tgbotapi.ChatMemberUpdated) {
	if !update.Chat.IsPrivate() {
		return
	}

	var active bool
	switch update.NewChatMember.Status {
	case memberKicked:
		active = false
	case memberJoined:
		active = true
	default:
		return
	}

	if err := b.users.SetActive(ctx, &update.From, active); err != nil {
		b.logger.Error("Failed to update user status",
			zap.Error(err),
			zap.Int64("telegram_id", update.From.ID),
			zap.Bool("active", active))
		return
	}
	b.logger.Info("User status changed",
		zap.Int64("telegram_id", update.From.ID),
		zap.Bool("active", active))
}

func (b *Bot) respond(ctx context.Context, from *tgbotapi.User, chatID int64, text string) {
	user, err := b.users.Ensure(ctx, from)
	if err != nil {
		b.logger.Error("Failed to load user",
			zap.Error(err),
			zap.Int64("telegram_id", from.ID))
		b.send(render(chatID, messages.TryAgain()))
		return
	}

	reply := b.router.Route(ctx, user.ID, Sanitize(text))
	b.send(render(chatID, reply))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", msg.ChatID))
	}
}
