package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/xaenox/routine-bot/internal/models"
)

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), ErrNotFound},
		{"second ongoing chat", &pq.Error{Code: uniqueViolation, Constraint: ongoingChatIndex, Message: "duplicate key"}, ErrConflict},
		{"duplicate event name", &pq.Error{Code: uniqueViolation, Constraint: "events_user_name_key", Message: "duplicate key"}, ErrDuplicate},
		{"other unique index", &pq.Error{Code: uniqueViolation, Constraint: "users_pkey", Message: "duplicate key"}, ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	fk := &pq.Error{Code: "23503", Message: "foreign key violation"}
	if got := mapError(fk); got != error(fk) {
		t.Errorf("mapError(foreign key) = %v, want the driver error unchanged", got)
	}
	if got := mapError(other); got != other {
		t.Errorf("mapError(%v) = %v, want it unchanged", other, got)
	}
}

func TestMapErrorKeepsDriverMessage(t *testing.T) {
	err := mapError(&pq.Error{Code: uniqueViolation, Constraint: "events_user_name_key", Message: "duplicate key value"})
	if got, want := err.Error(), "storage: duplicate: duplicate key value"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestEventRowToModel(t *testing.T) {
	row := eventRow{
		ID:         "e1",
		Name:       "晨跑",
		UserID:     "u1",
		Reminder:   true,
		CycleCount: sql.NullInt64{Int64: 2, Valid: true},
		CycleUnit:  sql.NullString{String: "week", Valid: true},
	}
	event, err := row.toModel()
	if err != nil {
		t.Fatalf("toModel: %v", err)
	}
	if event.Cycle == nil || *event.Cycle != (models.Cycle{Count: 2, Unit: models.UnitWeek}) {
		t.Errorf("Cycle = %v, want 2 week", event.Cycle)
	}

	row.CycleUnit = sql.NullString{String: "fortnight", Valid: true}
	if _, err := row.toModel(); err == nil {
		t.Error("toModel accepted an unknown cycle unit")
	}
}

func TestEventRowWithoutCycle(t *testing.T) {
	event, err := (&eventRow{ID: "e1", Name: "讀書", UserID: "u1"}).toModel()
	if err != nil {
		t.Fatalf("toModel: %v", err)
	}
	if event.Cycle != nil || event.NextReminder != nil {
		t.Errorf("event = %+v, want no cycle and no next reminder", event)
	}
}
