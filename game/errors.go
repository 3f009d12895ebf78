package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotInRoom           = errors.New("player is not in a room")
	ErrUnauthorized        = errors.New("not allowed for this player")
	ErrPhaseViolation      = errors.New("not allowed in the current phase")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrInvalidName         = errors.New("invalid display name")
	ErrInvalidVote         = errors.New("accused player is not in the room")
	ErrNoWordPair          = errors.New("word source returned no distinct pair")
)
