package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Alexus55/DrawingImposter2/tokens"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type contextkey string

const authContextKey contextkey = "auth_payload"

func (s *Server) AuthMiddleware(c *gin.Context) {
	header := c.Request.Header.Get("authorization")

	if header == "" {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthorized"))
		c.Abort()
		return
	}

	scheme, token, ok := strings.Cut(header, " ")

	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthorized"))
		c.Abort()
		return
	}

	payload, err := tokens.ParseJWTToken(token, []byte(s.config.JWTSecret))

	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("invalid bearer token"))
		c.Abort()
		return
	}

	c.Set(string(authContextKey), payload)

	c.Next()
}

func requestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("request")
}
