package domain

import "errors"

var (
	// ErrGameNotFound is returned when no game record exists for a room.
	ErrGameNotFound = errors.New("game not found for room")
	// ErrGameInProgress is returned when starting a game for a room that already has one.
	ErrGameInProgress = errors.New("game already in progress for room")
	// ErrRoomNotFound indicates the durable room record is missing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrMemberNotFound indicates a member account could not be resolved.
	ErrMemberNotFound = errors.New("member not found")
	// ErrNoRemainingQuiz is returned when all nine slots have been served.
	ErrNoRemainingQuiz = errors.New("no remaining quiz")
	// ErrBankIncomplete indicates the content store returned fewer items than a game needs.
	ErrBankIncomplete = errors.New("quiz bank incomplete")
)
