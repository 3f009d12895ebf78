package game

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxNameLength = 24
	DefaultName   = "Player"
)

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

func newPlayer(id, name string, host bool) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		IsHost: host,
	}
}

// NormalizeName trims and caps a display name. An empty name falls back to
// DefaultName; control characters and invalid UTF-8 are rejected.
func NormalizeName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: not valid utf-8", ErrInvalidName)
	}

	name = strings.TrimSpace(name)

	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains control characters", ErrInvalidName)
		}
	}

	if name == "" {
		return DefaultName, nil
	}

	return truncate(name, MaxNameLength), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
