package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alexus55/DrawingImposter2/game"
	"github.com/Alexus55/DrawingImposter2/util"
)

type Event struct {
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id"`
	Payload json.RawMessage `json:"payload"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

// inbound
const (
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room"
	EventStartGame  = "start_game"
	EventNextRound  = "next_round"
	EventStroke     = "stroke"
	EventChat       = "chat"
	EventVote       = "vote"
	EventGuess      = "guess"
	EventLeaveRoom  = "leave_room"
)

// outbound
const (
	EventError         = "error"
	EventRoomCreated   = "room_created"
	EventRoomJoined    = "room_joined"
	EventRoomNotFound  = "room_not_found"
	EventRoomState     = "room_state"
	EventWordAssigned  = "word_assigned"
	EventTurnStarted   = "turn_started"
	EventVotingStarted = "voting_started"
	EventRoundResults  = "round_results"
	EventChatMessage   = "chat_message"
	EventGuessResult   = "guess_result"
	EventCue           = "cue"
	EventRoomLeft      = "room_left"
	EventConnElsewhere = "conn_elsewhere"
)

type PayloadError struct {
	Message string `json:"message"`
}

type PayloadCreateRoom struct {
	Name string `json:"name" validate:"max=64"`
}

type PayloadJoinRoom struct {
	Code string `json:"code" validate:"required,max=64"`
	Name string `json:"name" validate:"max=64"`
}

type PayloadStroke struct {
	From  game.Point `json:"from"`
	To    game.Point `json:"to"`
	Color string     `json:"color" validate:"required,hexcolor"`
	Width float64    `json:"width" validate:"gt=0,lte=64"`
	Tool  string     `json:"tool" validate:"required,oneof=pen eraser"`
}

type PayloadChat struct {
	Text string `json:"text" validate:"required,max=500"`
}

type PayloadVote struct {
	Accused string `json:"accused" validate:"required"`
}

type PayloadGuess struct {
	Word string `json:"word" validate:"required,max=64"`
}

type PayloadMembership struct {
	Code     string `json:"code"`
	PlayerID string `json:"player_id"`
}

type PayloadRoom struct {
	Code string `json:"code"`
}

type PayloadWordAssigned struct {
	Word       string `json:"word"`
	IsImposter bool   `json:"is_imposter"`
}

type PayloadTurnStarted struct {
	DrawerID  string `json:"drawer_id"`
	TurnIndex int    `json:"turn_index"`
	Deadline  int64  `json:"deadline"`
}

type PayloadStrokeRelay struct {
	AuthorID string      `json:"author_id"`
	Stroke   game.Stroke `json:"stroke"`
}

type PayloadGuessResult struct {
	Correct bool `json:"correct"`
}

type PayloadCue struct {
	Cue game.Cue `json:"cue"`
}

// decodePayload unmarshals the event payload into v and runs its validate
// tags. An absent payload decodes as an empty object.
func decodePayload(evt Event, v any) error {
	raw := evt.Payload
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", evt.Type, err)
	}

	if err := util.Validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", evt.Type, err)
	}

	return nil
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(evtType, b, "")

	return evt, nil
}

func NewErrorEvent(traceId, message string) (Event, error) {
	payload := PayloadError{Message: message}
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(fmt.Sprintf("%v_%v", EventError, traceId), b, traceId)

	return evt, nil
}

func NewEventStruct(evtType string, payload []byte, traceId string) Event {
	return Event{
		Type:    evtType,
		TraceID: traceId,
		Payload: payload,
	}
}
