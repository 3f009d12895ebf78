package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
	writeWait    = 5 * time.Second
)

const (
	maxMessageSize = 8192
	egressSize     = 256
)

type Client struct {
	ID string
	// PlayerID is the session identity taken from the token. It is the id the
	// player has in the game room.
	PlayerID string
	Name     string

	connection *websocket.Conn
	manager    *Manager
	egress     chan Event
	limiter    *rate.Limiter
	// room is guarded by the manager lock.
	room string
	err  chan error
}

func NewClient(conn *websocket.Conn, manager *Manager, playerID, name string) *Client {
	return &Client{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		Name:       name,
		connection: conn,
		manager:    manager,
		egress:     make(chan Event, egressSize),
		limiter:    manager.newLimiter(),
		err:        make(chan error, 1),
	}
}

// Reads incoming messages from the clients websocket connection
func (c *Client) readMessages(ctx context.Context) {
	c.connection.SetReadLimit(maxMessageSize)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()

			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Str("player", c.PlayerID).Msg("error reading message")
				}
				c.handleError(err)
				return
			}

			var evt Event

			if err := json.Unmarshal(payload, &evt); err != nil {
				c.handleError(err)
				return
			}

			if !c.limiter.Allow() {
				log.Warn().Str("player", c.PlayerID).Str("event", evt.Type).Msg("rate limited, event dropped")
				continue
			}

			c.dispatch(ctx, evt)
		}
	}
}

// dispatch routes evt and reports handler errors. Only events that expect a
// direct reply get an error event back, anything else is logged and dropped.
func (c *Client) dispatch(ctx context.Context, evt Event) {
	err := c.manager.routeEvent(ctx, evt, c)
	if err == nil {
		return
	}

	if !repliesWithError(evt.Type) {
		log.Debug().Err(err).Str("player", c.PlayerID).Str("event", evt.Type).Msg("event rejected")
		return
	}

	log.Info().Err(err).Str("player", c.PlayerID).Str("event", evt.Type).Msg("request failed")

	errEvent, err := NewErrorEvent(evt.TraceID, err.Error())
	if err != nil {
		c.handleError(err)
		return
	}

	c.PushToEgress(errEvent)
}

// writes messages pushed to the client's egress channel
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			c.flush()
			return
		case message, ok := <-c.egress:
			if !ok {
				c.handleError(errors.New("client egress channel unexpectedly closed"))
				return
			}

			if err := c.write(message); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte("")); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

func (c *Client) write(message Event) error {
	data, err := json.Marshal(message)

	if err != nil {
		return err
	}

	c.connection.SetWriteDeadline(time.Now().Add(writeWait))
	return c.connection.WriteMessage(websocket.TextMessage, data)
}

// flush writes whatever is still queued, so a notice pushed right before the
// connection is closed still reaches the peer.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.egress:
			if err := c.write(message); err != nil {
				log.Debug().Err(err).Str("player", c.PlayerID).Msg("flushing egress")
				return
			}
		default:
			return
		}
	}
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// handleError reports the first failure of the read or write pump to the
// http handler, which then closes the connection and removes the client.
func (c *Client) handleError(e error) {
	select {
	case c.err <- e:
	default:
	}
}

// Returns the error channel
func (c *Client) Err() chan error {
	return c.err
}

// Creates an event and pushes to client's egress
func (c *Client) PushEventToEgress(evtType string, payload any) error {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		return err
	}
	c.PushToEgress(evt)
	return nil
}

// PushToEgress queues evt for delivery. A client that is not draining its
// queue loses the event instead of stalling the room.
func (c *Client) PushToEgress(evt Event) {
	select {
	case c.egress <- evt:
	default:
		log.Warn().Str("player", c.PlayerID).Str("event", evt.Type).Msg("egress full, event dropped")
	}
}

// Join moves the client into the broadcast group of a game room.
func (c *Client) Join(code string) {
	c.manager.Lock()
	defer c.manager.Unlock()

	c.leaveLocked()

	room := c.manager.Rooms[code]
	if !slices.Contains(room, c) {
		c.manager.Rooms[code] = append(room, c)
	}
	c.room = code
}

// Leave removes the client from its broadcast group, if any.
func (c *Client) Leave() {
	c.manager.Lock()
	defer c.manager.Unlock()

	c.leaveLocked()
}

// Room returns the code of the broadcast group the client is in.
func (c *Client) Room() string {
	c.manager.RLock()
	defer c.manager.RUnlock()

	return c.room
}

func (c *Client) leaveLocked() {
	if c.room == "" {
		return
	}

	room := c.manager.Rooms[c.room]
	if index := slices.Index(room, c); index >= 0 {
		room = slices.Delete(room, index, index+1)
	}

	if len(room) == 0 {
		delete(c.manager.Rooms, c.room)
	} else {
		c.manager.Rooms[c.room] = room
	}

	c.room = ""
}
