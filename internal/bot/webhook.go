package bot

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (b *Bot) serveWebhook(ctx context.Context) error {
	link := strings.TrimSuffix(b.cfg.WebhookURL, "/") + "/webhook/" + b.cfg.WebhookSecret
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	srv := &http.Server{
		Addr:              b.cfg.ListenAddr,
		Handler:           b.webhookHandler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Failed to shut down webhook server", zap.Error(err))
		}
	}()

	b.logger.Info("Serving webhook", zap.String("addr", b.cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server: %w", err)
	}
	b.handlers.Wait()
	return nil
}

func (b *Bot) webhookHandler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc("/webhook/{secret}", func(w http.ResponseWriter, req *http.Request) {
		secret := mux.Vars(req)["secret"]
		if subtle.ConstantTimeCompare([]byte(secret), []byte(b.cfg.WebhookSecret)) != 1 {
			http.NotFound(w, req)
			return
		}

		update, err := b.api.HandleUpdate(req)
		if err != nil {
			b.logger.Warn("Failed to decode update", zap.Error(err))
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}

		b.dispatch(ctx, *update)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	return r
}
