package service

import "errors"

var (
	// ErrInvalidInput wraps validation failures of user supplied values
	ErrInvalidInput = errors.New("invalid input")
	// ErrTrackNotSupported is returned when a track is uploaded for a workout type without tracks
	ErrTrackNotSupported = errors.New("workout type does not support tracks")
)
