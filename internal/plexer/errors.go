package plexer

import (
	"errors"

	"github.com/nerrad567/midiplexer/internal/port"
)

var (
	// ErrNoSuchClient is returned when a command names an unknown client.
	ErrNoSuchClient = errors.New("plexer: no such client")

	// ErrNoSuchController is returned when a command names an unknown controller.
	ErrNoSuchController = errors.New("plexer: no such controller")

	// ErrNoSuchScene is returned when activating a scene that does not exist.
	ErrNoSuchScene = errors.New("plexer: no such scene")

	// ErrDuplicateName is returned when adding a device whose name is taken.
	ErrDuplicateName = errors.New("plexer: duplicate name")

	// ErrUnknownType is returned when a device type has no port driver.
	ErrUnknownType = port.ErrUnknownType

	// ErrOffline is returned when a command needs a device whose port
	// could not be opened.
	ErrOffline = errors.New("plexer: device offline")

	// ErrQueryTimeout is returned when a worker does not answer in time.
	ErrQueryTimeout = errors.New("plexer: query timeout")

	// ErrUnknownCommand is returned for commands the plexer does not handle.
	ErrUnknownCommand = errors.New("plexer: unknown command")

	// ErrStopped is returned when the plexer is not running.
	ErrStopped = errors.New("plexer: stopped")

	// ErrInvalidArgument is returned for empty names and labels.
	ErrInvalidArgument = errors.New("plexer: invalid argument")
)
