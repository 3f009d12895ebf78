package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Alexus55/DrawingImposter2/archive"
	"github.com/Alexus55/DrawingImposter2/game"
	"github.com/Alexus55/DrawingImposter2/tokens"
	"github.com/Alexus55/DrawingImposter2/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"
)

const archiveTimeout = 2 * time.Second

// Default inbound limits used when the config leaves them unset.
const (
	defaultEventRate  = 40
	defaultEventBurst = 80
)

// ClientList maps a player id to its live connection. A player has at most
// one connection; a newer one replaces the older.
type ClientList map[string]*Client

type wsQuery struct {
	Token string `form:"token" binding:"required"`
}

// roomFeed orders the publishing of one room's updates.
type roomFeed struct {
	sync.Mutex
	version uint64
}

type Manager struct {
	clients ClientList
	sync.RWMutex
	handlers map[string]EventHandler
	// Rooms maps a room code to the clients receiving its broadcasts.
	Rooms    map[string][]*Client
	feeds    map[string]*roomFeed
	config   *util.Config
	registry *game.Registry
	results  archive.Archive
	upgrader websocket.Upgrader
}

// NewManager builds the session coordinator. results may be nil, in which
// case round results are not archived. opts are applied to every room.
func NewManager(config *util.Config, results archive.Archive, opts ...game.RoomOption) *Manager {
	m := &Manager{
		clients:  make(ClientList),
		handlers: make(map[string]EventHandler),
		Rooms:    make(map[string][]*Client),
		feeds:    make(map[string]*roomFeed),
		config:   config,
		results:  results,
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}

	roomOpts := append(slices.Clone(opts), game.WithUpdateHandler(m.publish))
	m.registry = game.NewRegistry(game.WithRoomOptions(roomOpts...))

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventCreateRoom] = CreateRoom
	m.handlers[EventJoinRoom] = JoinRoom
	m.handlers[EventStartGame] = StartGame
	m.handlers[EventNextRound] = StartGame
	m.handlers[EventStroke] = DrawStroke
	m.handlers[EventChat] = PostChat
	m.handlers[EventVote] = SubmitVote
	m.handlers[EventGuess] = SubmitGuess
	m.handlers[EventLeaveRoom] = LeaveRoom
}

// repliesWithError reports whether a failed event of type evtType is answered
// with an error event instead of being dropped.
func repliesWithError(evtType string) bool {
	return evtType == EventCreateRoom || evtType == EventJoinRoom
}

func (m *Manager) Registry() *game.Registry {
	return m.registry
}

func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		if err := handler(ctx, evt, c); err != nil {
			return err
		}

		return nil
	}

	return fmt.Errorf("there is no such event type %q", evt.Type)
}

func (m *Manager) newLimiter() *rate.Limiter {
	limit, burst := rate.Limit(defaultEventRate), defaultEventBurst
	if m.config != nil && m.config.EventRate > 0 {
		limit = rate.Limit(m.config.EventRate)
	}
	if m.config != nil && m.config.EventBurst > 0 {
		burst = m.config.EventBurst
	}
	return rate.NewLimiter(limit, burst)
}

// addClient registers client and returns the connection it replaced.
func (m *Manager) addClient(client *Client) *Client {
	m.Lock()
	defer m.Unlock()

	previous := m.clients[client.PlayerID]
	m.clients[client.PlayerID] = client

	if previous != nil && previous.room != "" {
		code := previous.room
		previous.leaveLocked()
		m.Rooms[code] = append(m.Rooms[code], client)
		client.room = code
	}

	return previous
}

// removeClient drops client and, unless it was replaced by a newer
// connection, takes its player out of the game room.
func (m *Manager) removeClient(client *Client) {
	m.Lock()
	current := m.clients[client.PlayerID] == client
	if current {
		delete(m.clients, client.PlayerID)
	}
	client.leaveLocked()
	m.Unlock()

	if !current {
		return
	}

	if u, ok := m.registry.RemovePlayer(client.PlayerID); ok {
		log.Info().Str("room", u.Code).Str("player", client.PlayerID).Msg("player disconnected")
		m.publish(u)
	}
}

// EmitToRoom sends evt to every client in the room except the excluded
// player ids.
func (m *Manager) EmitToRoom(code string, evt Event, exclude ...string) {
	m.RLock()
	defer m.RUnlock()

	for _, c := range m.Rooms[code] {
		if slices.Contains(exclude, c.PlayerID) {
			continue
		}
		c.PushToEgress(evt)
	}
}

// SendTo sends evt only to playerID, provided it is in the room.
func (m *Manager) SendTo(code, playerID string, evt Event) {
	m.RLock()
	defer m.RUnlock()

	for _, c := range m.Rooms[code] {
		if c.PlayerID == playerID {
			c.PushToEgress(evt)
		}
	}
}

func (m *Manager) removeRoom(code string) {
	m.Lock()
	defer m.Unlock()

	for _, c := range m.Rooms[code] {
		c.room = ""
	}
	delete(m.Rooms, code)
	delete(m.feeds, code)
}

func (m *Manager) feed(code string) *roomFeed {
	m.Lock()
	defer m.Unlock()

	f, ok := m.feeds[code]
	if !ok {
		f = &roomFeed{}
		m.feeds[code] = f
	}
	return f
}

// publish fans an update out to the room. It runs after the room lock is
// released, both for handler results and for turn timer expiry. Updates of
// one room are published one at a time, and a snapshot older than one
// already sent is not sent again.
func (m *Manager) publish(u game.Update) {
	if u.Closed {
		m.removeRoom(u.Code)
		log.Info().Str("room", u.Code).Msg("room closed")
		return
	}

	f := m.feed(u.Code)
	f.Lock()
	defer f.Unlock()

	if u.Changed {
		if u.Snapshot.Version >= f.version {
			f.version = u.Snapshot.Version
			m.emit(u.Code, EventRoomState, u.Snapshot)
		} else {
			log.Debug().Str("room", u.Code).Uint64("version", u.Snapshot.Version).Msg("stale snapshot skipped")
		}
	}

	for _, n := range u.Notices {
		switch n := n.(type) {
		case game.CueNotice:
			m.emit(u.Code, EventCue, PayloadCue{Cue: n.Cue})
		case game.WordAssigned:
			evt, err := NewEvent(EventWordAssigned, PayloadWordAssigned{Word: n.Word, IsImposter: n.IsImposter})
			if err != nil {
				log.Error().Err(err).Msg("encoding word assignment")
				continue
			}
			m.SendTo(u.Code, n.PlayerID, evt)
		case game.TurnStarted:
			m.emit(u.Code, EventTurnStarted, PayloadTurnStarted{
				DrawerID:  n.DrawerID,
				TurnIndex: n.TurnIndex,
				Deadline:  n.Deadline.UnixMilli(),
			})
		case game.VotingStarted:
			m.emit(u.Code, EventVotingStarted, struct{}{})
		case game.StrokeDrawn:
			m.emit(u.Code, EventStroke, PayloadStrokeRelay{AuthorID: n.AuthorID, Stroke: n.Stroke}, n.AuthorID)
		case game.ChatPosted:
			m.emit(u.Code, EventChatMessage, n.Message)
		case game.RoundEnded:
			m.emit(u.Code, EventRoundResults, n.Result)
			m.archive(u.Code, n.Result)
		}
	}
}

func (m *Manager) emit(code, evtType string, payload any, exclude ...string) {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		log.Error().Err(err).Str("room", code).Str("event", evtType).Msg("encoding event")
		return
	}
	m.EmitToRoom(code, evt, exclude...)
}

func (m *Manager) archive(code string, result game.RoundResult) {
	if m.results == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := m.results.Record(ctx, code, result); err != nil {
		log.Warn().Err(err).Str("room", code).Int("round", result.Round).Msg("archiving round result")
	}
}

// Websocket connection handler
func (m *Manager) ServeWS(c *gin.Context) {
	var query wsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "token not sent",
		})
		return
	}

	payload, err := tokens.ParseJWTToken(query.Token, []byte(m.config.JWTSecret))

	if err != nil {
		c.IndentedJSON(http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		log.Warn().Err(err).Msg("error upgrading to websocket connection")
		return
	}

	client := NewClient(conn, m, payload.ID, payload.Username)

	if previous := m.addClient(client); previous != nil {
		previous.PushEventToEgress(EventConnElsewhere, nil)
		previous.handleError(errors.New("replaced by a newer connection"))
	}

	m.resume(client)

	ctx, cancel := context.WithCancel(c)
	writerDone := make(chan struct{})

	defer func() {
		cancel()
		<-writerDone
		m.removeClient(client)
		err := client.connection.WriteMessage(websocket.CloseMessage, nil)

		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			log.Debug().Err(err).Msg("error sending close message")
		}
		client.connection.Close()
	}()

	go client.readMessages(ctx)
	go func() {
		defer close(writerDone)
		client.writeMessages(ctx)
	}()

	err = <-client.Err()

	log.Debug().Err(err).Str("player", client.PlayerID).Msg("client closed")
}

// resume sends the current room state to a client that reconnected while its
// player was still seated in a room.
func (m *Manager) resume(client *Client) {
	code := client.Room()
	if code == "" {
		return
	}

	room, ok := m.registry.Lookup(code)
	if !ok || !room.HasPlayer(client.PlayerID) {
		return
	}

	client.PushEventToEgress(EventRoomJoined, PayloadMembership{Code: code, PlayerID: client.PlayerID})
	client.PushEventToEgress(EventRoomState, room.Snapshot())

	if view, ok := room.WordFor(client.PlayerID); ok {
		client.PushEventToEgress(EventWordAssigned, PayloadWordAssigned{Word: view.Word, IsImposter: view.IsImposter})
	}
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	var allowed []string
	if m.config != nil {
		allowed = m.config.AllowedOrigins
	}

	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
