package game

import (
	"strings"
	"time"
)

const (
	MaxChatLength     = 200
	ChatHistoryLimit  = 50
	MaxStrokesPerTurn = 10000
)

type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is a single line segment drawn during a turn.
type Stroke struct {
	From  Point   `json:"from"`
	To    Point   `json:"to"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Tool  Tool    `json:"tool"`
}

type ChatMessage struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}

func newChatMessage(sender *Player, text string, at time.Time) (ChatMessage, bool) {
	text = truncate(strings.TrimSpace(text), MaxChatLength)
	if text == "" {
		return ChatMessage{}, false
	}

	return ChatMessage{
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Text:       text,
		Timestamp:  at.UnixMilli(),
	}, true
}
