package dialogue

import (
	"errors"
	"fmt"

	"github.com/xaenox/routine-bot/internal/messages"
	"github.com/xaenox/routine-bot/internal/models"
	"github.com/xaenox/routine-bot/internal/storage"
)

// Kind classifies why a turn did not go through.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindStorage
	KindResourceLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	case KindResourceLimit:
		return "resource_limit"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failed turn together with the reply the user should see.
type Error struct {
	Kind  Kind
	Reply models.Outbound
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, reply models.Outbound, err error) *Error {
	return &Error{Kind: kind, Reply: reply, Err: err}
}

// KindOf returns the kind of err, or zero if err is not an *Error.
func KindOf(err error) Kind {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return 0
}

// storageError wraps a repository failure. Conflicts stay recoverable so the
// user can simply resend.
func storageError(err error) *Error {
	if errors.Is(err, storage.ErrConflict) {
		return newError(KindConflict, messages.Conflict(), err)
	}
	return newError(KindStorage, messages.TryAgain(), err)
}
