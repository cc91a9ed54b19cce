package eventbus

import (
	"strconv"
	"time"
)

type EventType string

const (
	EventSessionStarted EventType = "session.started"
	EventSessionStopped EventType = "session.stopped"
	EventSessionExpired EventType = "session.expired"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

func WorkspaceChannelKey(workspaceID int64) string {
	return "workspace:" + strconv.FormatInt(workspaceID, 10) + ":multiplayer"
}
