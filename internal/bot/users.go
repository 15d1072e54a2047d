package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
	"go.uber.org/zap"
)

// Profile is what the platform tells us about a user.
type Profile struct {
	DisplayName string
	PictureURL  string
}

type ProfileResolver interface {
	Resolve(ctx context.Context, from *tgbotapi.User) (Profile, error)
}

type photoGetter interface {
	GetUserProfilePhotos(config tgbotapi.UserProfilePhotosConfig) (tgbotapi.UserProfilePhotos, error)
}

// telegramProfiles reads names from the update and the newest profile photo
// from the Bot API. PictureURL holds the photo's file ID since Telegram file
// links embed the bot token.
type telegramProfiles struct {
	api photoGetter
}

func (p telegramProfiles) Resolve(_ context.Context, from *tgbotapi.User) (Profile, error) {
	profile := Profile{DisplayName: displayName(from)}

	photos, err := p.api.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{UserID: from.ID, Limit: 1})
	if err != nil {
		return profile, fmt.Errorf("get profile photos: %w", err)
	}
	if len(photos.Photos) > 0 && len(photos.Photos[0]) > 0 {
		sizes := photos.Photos[0]
		profile.PictureURL = sizes[len(sizes)-1].FileID
	}
	return profile, nil
}

func displayName(from *tgbotapi.User) string {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return name
}

func userID(from *tgbotapi.User) string {
	return strconv.FormatInt(from.ID, 10)
}

// Registry keeps the users table in step with who talks to the bot.
type Registry struct {
	store           storage.Storage
	profiles        ProfileResolver
	refreshInterval time.Duration
	now             func() time.Time
	logger          *zap.Logger
}

func NewRegistry(store storage.Storage, profiles ProfileResolver, refreshInterval time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		store:           store,
		profiles:        profiles,
		refreshInterval: refreshInterval,
		now:             time.Now,
		logger:          logger,
	}
}

// Ensure returns the stored user for from, registering it on first contact.
// A stale profile is refreshed on the way; failing to resolve the profile
// never fails the call.
func (r *Registry) Ensure(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	id := userID(from)
	user, err := r.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return r.register(ctx, from)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	if !user.Active {
		if err := r.store.SetUserActive(ctx, id, true); err != nil {
			return nil, fmt.Errorf("reactivate user %s: %w", id, err)
		}
		user.Active = true
	}

	if r.refreshInterval > 0 && r.now().Sub(user.ProfileRefreshedAt) >= r.refreshInterval {
		r.refresh(ctx, from, user)
	}
	return user, nil
}

func (r *Registry) register(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	now := r.now()
	profile, err := r.profiles.Resolve(ctx, from)
	if err != nil {
		r.logger.Warn("Failed to resolve profile",
			zap.Error(err),
			zap.Int64("telegram_id", from.ID))
	}
	if profile.DisplayName == "" {
		profile.DisplayName = displayName(from)
	}

	user := &models.User{
		ID:                 userID(from),
		DisplayName:        profile.DisplayName,
		PictureURL:         profile.PictureURL,
		ProfileRefreshedAt: now,
		Active:             true,
		CreatedAt:          now,
	}
	if err := r.store.CreateUser(ctx, user); err != nil {
		// Another update from the same user may have registered it first.
		if errors.Is(err, storage.ErrDuplicate) {
			return r.store.GetUser(ctx, user.ID)
		}
		return nil, fmt.Errorf("create user %s: %w", user.ID, err)
	}

	r.logger.Info("Registered user", zap.String("user_id", user.ID))
	return user, nil
}

func (r *Registry) refresh(ctx context.Context, from *tgbotapi.User, user *models.User) {
	profile, err := r.profiles.Resolve(ctx, from)
	if err != nil {
		r.logger.Warn("Failed to refresh profile",
			zap.Error(err),
			zap.String("user_id", user.ID))
		return
	}

	now := r.now()
	if err := r.store.UpdateUserProfile(ctx, user.ID, profile.DisplayName, profile.PictureURL, now); err != nil {
		r.logger.Error("Failed to save refreshed profile",
			zap.Error(err),
			zap.String("user_id", user.ID))
		return
	}
	user.DisplayName = profile.DisplayName
	user.PictureURL = profile.PictureURL
	user.ProfileRefreshedAt = now
}

// SetActive records that from blocked or unblocked the bot. Unblocking an
// unknown user registers it.
func (r *Registry) SetActive(ctx context.Context, from *tgbotapi.User, active bool) error {
	id := userID(from)
	err := r.store.SetUserActive(ctx, id, active)
	if errors.Is(err, storage.ErrNotFound) {
		if !active {
			return nil
		}
		_, err = r.register(ctx, from)
	}
	if err != nil {
		return fmt.Errorf("set user %s active=%t: %w", id, active, err)
	}
	return nil
}
