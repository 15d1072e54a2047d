package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/xaenox/routine-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

const (
	uniqueViolation    = "23505"
	ongoingChatIndex   = "chats_one_ongoing_per_user"
	defaultMaxOpenConn = 10
)

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	*pgStore
	db     *sqlx.DB
	logger *zap.Logger
}

// pgStore runs queries against either the pool or an open transaction.
type pgStore struct {
	q sqlx.ExtContext
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sqlx.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConn
	}
	db.SetMaxOpenConns(maxOpen)

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{pgStore: &pgStore{q: db}, db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	logger.Info("Database initialized", zap.String("host", config.Host), zap.String("dbname", config.DBName))

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := fn(&pgStore{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", mapError(err))
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// User methods

func (s *pgStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, s.q, &user, `
		SELECT user_id, created_at, display_name, picture_url, profile_refreshed_at,
		       event_count, is_premium, premium_until, is_active
		FROM users
		WHERE user_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user %s: %w", id, mapError(err))
	}
	return &user, nil
}

func (s *pgStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, display_name, picture_url, profile_refreshed_at, event_count, is_premium, premium_until, is_active)
		VALUES (:user_id, :display_name, :picture_url, :profile_refreshed_at, :event_count, :is_premium, :premium_until, :is_active)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, user); err != nil {
		return fmt.Errorf("error creating user %s: %w", user.ID, mapError(err))
	}
	return nil
}

func (s *pgStore) UpdateUserProfile(ctx context.Context, id, displayName, pictureURL string, refreshedAt time.Time) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE users
		SET display_name = $1, picture_url = $2, profile_refreshed_at = $3
		WHERE user_id = $4`, displayName, pictureURL, refreshedAt, id)
	if err != nil {
		return fmt.Errorf("error updating user profile %s: %w", id, mapError(err))
	}
	return expectRow(result, "user "+id)
}

func (s *pgStore) SetUserActive(ctx context.Context, id string, active bool) error {
	result, err := s.q.ExecContext(ctx, `UPDATE users SET is_active = $1 WHERE user_id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("error updating user %s: %w", id, mapError(err))
	}
	if err := expectRow(result, "user "+id); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `UPDATE events SET is_active = $1 WHERE user_id = $2`, active, id); err != nil {
		return fmt.Errorf("error updating events of %s: %w", id, mapError(err))
	}
	return nil
}

func (s *pgStore) IncrementUserEventCount(ctx context.Context, id string, delta int) error {
	result, err := s.q.ExecContext(ctx, `UPDATE users SET event_count = event_count + $1 WHERE user_id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("error updating event count of %s: %w", id, mapError(err))
	}
	return expectRow(result, "user "+id)
}

// Chat methods

type chatRow struct {
	ID        string         `db:"chat_id"`
	UserID    string         `db:"user_id"`
	Type      string         `db:"chat_type"`
	Step      sql.NullString `db:"current_step"`
	Payload   []byte         `db:"payload"`
	Status    string         `db:"status"`
	Version   int            `db:"version"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *chatRow) toModel() (*models.Chat, error) {
	chatType := models.ChatType(r.Type)
	payload, err := models.DecodePayload(chatType, r.Payload)
	if err != nil {
		return nil, err
	}
	return &models.Chat{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      chatType,
		Step:      models.Step(r.Step.String),
		Payload:   payload,
		Status:    models.ChatStatus(r.Status),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
	}, nil
}

func (s *pgStore) FindOngoingChat(ctx context.Context, userID string) (*models.Chat, error) {
	var row chatRow
	err := sqlx.GetContext(ctx, s.q, &row, `
		SELECT chat_id, user_id, chat_type, current_step, payload, status, version, created_at
		FROM chats
		WHERE user_id = $1 AND status = $2`, userID, models.ChatStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("error finding ongoing chat of %s: %w", userID, mapError(err))
	}
	return row.toModel()
}

func (s *pgStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	payload, err := models.EncodePayload(chat.Payload)
	if err != nil {
		return err
	}
	err = s.q.QueryRowxContext(ctx, `
		INSERT INTO chats (chat_id, user_id, chat_type, current_step, payload, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		RETURNING created_at`,
		chat.ID, chat.UserID, chat.Type, nullStep(chat.Step), payload, chat.Status,
	).Scan(&chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating chat %s: %w", chat.ID, mapError(err))
	}
	chat.Version = 1
	return nil
}

func (s *pgStore) UpdateChat(ctx context.Context, chat *models.Chat) error {
	payload, err := models.EncodePayload(chat.Payload)
	if err != nil {
		return err
	}
	result, err := s.q.ExecContext(ctx, `
		UPDATE chats
		SET current_step = $1, payload = $2, status = $3, version = version + 1
		WHERE chat_id = $4 AND version = $5`,
		nullStep(chat.Step), payload, chat.Status, chat.ID, chat.Version)
	if err != nil {
		return fmt.Errorf("error updating chat %s: %w", chat.ID, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("chat %s at version %d: %w", chat.ID, chat.Version, ErrConflict)
	}
	chat.Version++
	return nil
}

// Event methods

type eventRow struct {
	ID           string         `db:"event_id"`
	Name         string         `db:"event_name"`
	UserID       string         `db:"user_id"`
	LastDoneAt   time.Time      `db:"last_done_at"`
	Reminder     bool           `db:"reminder"`
	CycleCount   sql.NullInt64  `db:"cycle_count"`
	CycleUnit    sql.NullString `db:"cycle_unit"`
	NextReminder sql.NullTime   `db:"next_reminder"`
	ShareCount   int            `db:"share_count"`
	Active       bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
}

func newEventRow(e *models.Event) eventRow {
	row := eventRow{
		ID:         e.ID,
		Name:       e.Name,
		UserID:     e.UserID,
		LastDoneAt: e.LastDoneAt,
		Reminder:   e.Reminder,
		ShareCount: e.ShareCount,
		Active:     e.Active,
	}
	if e.Cycle != nil {
		row.CycleCount = sql.NullInt64{Int64: int64(e.Cycle.Count), Valid: true}
		row.CycleUnit = sql.NullString{String: string(e.Cycle.Unit), Valid: true}
	}
	if e.NextReminder != nil {
		row.NextReminder = sql.NullTime{Time: *e.NextReminder, Valid: true}
	}
	return row
}

func (r *eventRow) toModel() (*models.Event, error) {
	e := &models.Event{
		ID:         r.ID,
		Name:       r.Name,
		UserID:     r.UserID,
		LastDoneAt: r.LastDoneAt,
		Reminder:   r.Reminder,
		ShareCount: r.ShareCount,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
	}
	if r.CycleCount.Valid && r.CycleUnit.Valid {
		unit := models.Unit(r.CycleUnit.String)
		if !unit.Valid() {
			return nil, fmt.Errorf("event %s has unknown cycle unit %q", r.ID, r.CycleUnit.String)
		}
		e.Cycle = &models.Cycle{Count: int(r.CycleCount.Int64), Unit: unit}
	}
	if r.NextReminder.Valid {
		t := r.NextReminder.Time
		e.NextReminder = &t
	}
	return e, nil
}

func (s *pgStore) FindEventIDByName(ctx context.Context, userID, name string) (string, error) {
	var id string
	err := sqlx.GetContext(ctx, s.q, &id,
		`SELECT event_id FROM events WHERE user_id = $1 AND event_name = $2`, userID, name)
	if err != nil {
		return "", fmt.Errorf("error finding event %q of %s: %w", name, userID, mapError(err))
	}
	return id, nil
}

func (s *pgStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, s.q, &row, `
		SELECT event_id, event_name, user_id, last_done_at, reminder, cycle_count, cycle_unit,
		       next_reminder, share_count, is_active, created_at
		FROM events
		WHERE event_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("error getting event %s: %w", id, mapError(err))
	}
	return row.toModel()
}

func (s *pgStore) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (event_id, event_name, user_id, last_done_at, reminder, cycle_count, cycle_unit, next_reminder, share_count, is_active)
		VALUES (:event_id, :event_name, :user_id, :last_done_at, :reminder, :cycle_count, :cycle_unit, :next_reminder, :share_count, :is_active)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, newEventRow(event)); err != nil {
		return fmt.Errorf("error creating event %q: %w", event.Name, mapError(err))
	}
	return nil
}

func (s *pgStore) RecordCompletion(ctx context.Context, c *models.Completion) error {
	query := `
		INSERT INTO updates (update_id, event_id, event_name, user_id, done_at)
		VALUES (:update_id, :event_id, :event_name, :user_id, :done_at)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, c); err != nil {
		return fmt.Errorf("error recording completion of %s: %w", c.EventID, mapError(err))
	}
	return nil
}

func (s *pgStore) RecentCompletions(ctx context.Context, eventID string, limit int) ([]time.Time, error) {
	var times []time.Time
	err := sqlx.SelectContext(ctx, s.q, &times, `
		SELECT done_at
		FROM updates
		WHERE event_id = $1
		ORDER BY done_at DESC
		LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying completions of %s: %w", eventID, mapError(err))
	}
	return times, nil
}

func nullStep(step models.Step) sql.NullString {
	return sql.NullString{String: string(step), Valid: step != models.StepNone}
}

func expectRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == ongoingChatIndex {
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
	}
	return err
}
