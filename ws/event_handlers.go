package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alexus55/DrawingImposter2/game"
	"github.com/rs/zerolog/log"
)

func CreateRoom(ctx context.Context, e Event, c *Client) error {
	var payload PayloadCreateRoom

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	name := payload.Name
	if name == "" {
		name = c.Name
	}

	membership, err := c.manager.registry.CreateRoom(c.PlayerID, name)
	if err != nil {
		return err
	}

	c.enter(membership)

	log.Info().Str("room", membership.Code).Str("player", c.PlayerID).Msg("room created")

	if err := c.PushEventToEgress(EventRoomCreated, PayloadMembership{
		Code:     membership.Code,
		PlayerID: membership.PlayerID,
	}); err != nil {
		return err
	}

	c.manager.publish(membership.Update)

	return nil
}

func JoinRoom(ctx context.Context, e Event, c *Client) error {
	var payload PayloadJoinRoom

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	name := payload.Name
	if name == "" {
		name = c.Name
	}

	membership, err := c.manager.registry.JoinRoom(payload.Code, c.PlayerID, name)

	if errors.Is(err, game.ErrRoomNotFound) {
		return c.PushEventToEgress(EventRoomNotFound, PayloadRoom{Code: game.NormalizeCode(payload.Code)})
	}

	if err != nil {
		return err
	}

	c.enter(membership)

	log.Info().Str("room", membership.Code).Str("player", c.PlayerID).Msg("room joined")

	if err := c.PushEventToEgress(EventRoomJoined, PayloadMembership{
		Code:     membership.Code,
		PlayerID: membership.PlayerID,
	}); err != nil {
		return err
	}

	// a repeated join changes nothing for the others but the joiner still
	// needs the state
	if !membership.Update.Changed {
		return c.PushEventToEgress(EventRoomState, membership.Room.Snapshot())
	}

	c.manager.publish(membership.Update)

	return nil
}

// StartGame serves both start_game and next_round.
func StartGame(ctx context.Context, e Event, c *Client) error {
	room, err := c.gameRoom()
	if err != nil {
		return err
	}

	u, err := room.StartGame(c.PlayerID)
	if err != nil {
		return err
	}

	log.Info().Str("room", room.Code()).Str("player", c.PlayerID).Str("event", e.Type).Msg("round started")

	c.manager.publish(u)

	return nil
}

func DrawStroke(ctx context.Context, e Event, c *Client) error {
	var payload PayloadStroke

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	room, err := c.gameRoom()
	if err != nil {
		return err
	}

	u, err := room.RecordStroke(c.PlayerID, game.Stroke{
		From:  payload.From,
		To:    payload.To,
		Color: payload.Color,
		Width: payload.Width,
		Tool:  game.Tool(payload.Tool),
	})
	if err != nil {
		return err
	}

	c.manager.publish(u)

	return nil
}

func PostChat(ctx context.Context, e Event, c *Client) error {
	var payload PayloadChat

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	room, err := c.gameRoom()
	if err != nil {
		return err
	}

	u, err := room.PostChat(c.PlayerID, payload.Text)
	if err != nil {
		return err
	}

	c.manager.publish(u)

	return nil
}

func SubmitVote(ctx context.Context, e Event, c *Client) error {
	var payload PayloadVote

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	room, err := c.gameRoom()
	if err != nil {
		return err
	}

	u, err := room.SubmitVote(c.PlayerID, payload.Accused)
	if err != nil {
		return err
	}

	c.manager.publish(u)

	return nil
}

func SubmitGuess(ctx context.Context, e Event, c *Client) error {
	var payload PayloadGuess

	if err := decodePayload(e, &payload); err != nil {
		return err
	}

	room, err := c.gameRoom()
	if err != nil {
		return err
	}

	correct, u, err := room.SubmitGuess(c.PlayerID, payload.Word)
	if err != nil {
		return err
	}

	if err := c.PushEventToEgress(EventGuessResult, PayloadGuessResult{Correct: correct}); err != nil {
		return err
	}

	c.manager.publish(u)

	return nil
}

func LeaveRoom(ctx context.Context, e Event, c *Client) error {
	u, ok := c.manager.registry.RemovePlayer(c.PlayerID)
	if !ok {
		return fmt.Errorf("leave: %w", game.ErrNotInRoom)
	}

	c.Leave()

	log.Info().Str("room", u.Code).Str("player", c.PlayerID).Msg("room left")

	if err := c.PushEventToEgress(EventRoomLeft, PayloadRoom{Code: u.Code}); err != nil {
		return err
	}

	c.manager.publish(u)

	return nil
}

// enter moves the client's broadcast membership to the room it just created
// or joined, telling the room it left about the departure.
func (c *Client) enter(membership game.Membership) {
	c.Join(membership.Code)

	if membership.Left != nil {
		c.manager.publish(*membership.Left)
	}
}

// gameRoom resolves the room the client's player currently sits in.
func (c *Client) gameRoom() (*game.Room, error) {
	room, ok := c.manager.registry.Resolve(c.PlayerID)
	if !ok {
		return nil, game.ErrNotInRoom
	}
	return room, nil
}
