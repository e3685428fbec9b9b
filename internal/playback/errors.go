package playback

import "errors"

var (
	// ErrGestureActive means a second interactive gesture was started while
	// one was still in flight. The API surfaces this as a conflict.
	ErrGestureActive = errors.New("gesture already in progress")

	// ErrNoGesture means an update, end or cancel arrived with nothing in
	// flight.
	ErrNoGesture = errors.New("no gesture in progress")

	// ErrInvalidGesture means the begin request named an unknown gesture
	// kind.
	ErrInvalidGesture = errors.New("unknown gesture kind")

	ErrClipNotFound     = errors.New("clip not found")
	ErrTrackNotFound    = errors.New("track not found")
	ErrInvalidTrackKind = errors.New("invalid track kind")

	// ErrInvalidDrop means a drop payload was missing its content reference
	// or named a kind no track accepts.
	ErrInvalidDrop = errors.New("invalid drop payload")
)
