package api

import (
	"errors"
	"net/http"

	"github.com/Alexus55/DrawingImposter2/game"
	"github.com/Alexus55/DrawingImposter2/http_utils"
	"github.com/Alexus55/DrawingImposter2/tokens"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const ErrorMessage500 = "Something went wrong!"

var errNoAuthPayload = errors.New("auth_payload in request context is not a *tokens.Payload")

type usernameRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

// Generates a token using the username passed as request body
func (s *Server) TokenGenerator(c *gin.Context) {
	var data usernameRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.ValidationFailed(err))
		return
	}

	username, err := game.NormalizeName(data.Username)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	payload := tokens.Payload{
		ID:       uuid.NewString(),
		Username: username,
	}

	token, err := tokens.NewJWTToken(payload, []byte(s.config.JWTSecret), s.config.TokenTTL)

	if err != nil {
		log.Error().Err(err).Msg("signing token")
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, successResponse("Auth data", gin.H{
		"id":       payload.ID,
		"username": payload.Username,
		"token":    token,
	}))
}

func (s *Server) GetTokenData(c *gin.Context) {
	payload, ok := authPayload(c)

	if !ok {
		log.Error().Err(errNoAuthPayload).Msg("reading token data")
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, successResponse("success", payload))
}

type roomRequest struct {
	Code string `uri:"code" binding:"required,max=64"`
}

// CheckRoom tells a client whether a code can be joined before it opens a
// websocket.
func (s *Server) CheckRoom(c *gin.Context) {
	var data roomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.ValidationFailed(err))
		return
	}

	room, ok := s.wsManager.Registry().Lookup(data.Code)

	if !ok {
		c.JSON(http.StatusNotFound, errorResponse(game.ErrRoomNotFound.Error()))
		return
	}

	snap := room.Snapshot()

	c.JSON(http.StatusOK, successResponse("room data", gin.H{
		"code":    snap.Code,
		"phase":   snap.Phase,
		"round":   snap.Round,
		"players": len(snap.Players),
		"host_id": snap.HostID,
	}))
}

// RoomHistory lists the archived results of a room.
func (s *Server) RoomHistory(c *gin.Context) {
	if s.results == nil {
		c.JSON(http.StatusNotFound, errorResponse("history is not enabled"))
		return
	}

	var data roomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.ValidationFailed(err))
		return
	}

	code := game.NormalizeCode(data.Code)

	history, err := s.results.History(c.Request.Context(), code)

	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("reading room history")
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, successResponse("room history", history))
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rooms":  s.wsManager.Registry().Len(),
	})
}

func errorResponse(msg string) gin.H {
	return gin.H{
		"status":  "error",
		"message": msg,
	}
}

func successResponse[T any](msg string, data T) gin.H {
	return gin.H{
		"status":  "success",
		"message": msg,
		"data":    data,
	}
}

func authPayload(c *gin.Context) (*tokens.Payload, bool) {
	v, ok := c.Get(string(authContextKey))

	if !ok {
		return nil, false
	}

	payload, ok := v.(*tokens.Payload)

	return payload, ok
}
