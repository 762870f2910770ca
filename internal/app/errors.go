package app

import "errors"

// ErrInvalidArgument is returned when a use case's input parses but
// violates a schema/value constraint (e.g. an empty player name).
var ErrInvalidArgument = errors.New("invalid argument")
