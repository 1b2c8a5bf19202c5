package fins

import (
	"errors"

	"github.com/etnz/fins/storage"
)

var (
	// ErrTypeMismatch is returned when a command receives an input of the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnknownCommand is returned when no handler is registered for a node kind.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNotFound is returned for unknown tickers, paths or topics.
	ErrNotFound = storage.ErrNotFound
	// ErrLocked is returned when writing to a locked storage path.
	ErrLocked = storage.ErrLocked
)
