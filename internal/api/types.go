package api

import (
	"time"

	"gamehost/internal/session"
	"gamehost/internal/storage"
)

type StartSessionRequest struct {
	WorkspaceID int64 `json:"workspace_id" binding:"required"`
	MaxPlayers  int   `json:"max_players"`
	TTLMinutes  int   `json:"ttl_minutes"`
}

type StartSessionData struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
	ExpiresAt  string `json:"expires_at"`
	MaxPlayers int    `json:"max_players"`
}

type StatusData struct {
	Exists           bool   `json:"exists"`
	Status           string `json:"status,omitempty"`
	SessionURL       string `json:"session_url,omitempty"`
	CurrentPlayers   int    `json:"current_players"`
	MaxPlayers       int    `json:"max_players"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	CanAcceptPlayers bool   `json:"can_accept_players"`
}

type ActiveSessionData struct {
	SessionID      string `json:"session_id"`
	WorkspaceID    int64  `json:"workspace_id"`
	WorkspaceName  string `json:"workspace_name"`
	EngineType     string `json:"engine_type"`
	SessionURL     string `json:"session_url"`
	CurrentPlayers int    `json:"current_players"`
	MaxPlayers     int    `json:"max_players"`
	ExpiresAt      string `json:"expires_at"`
	CreatedAt      string `json:"created_at"`
}

type ActiveListData struct {
	Sessions []ActiveSessionData `json:"sessions"`
	Count    int                 `json:"count"`
}

type FileListData struct {
	Files []storage.FileInfo `json:"files"`
	Count int                `json:"count"`
}

type SSEEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func newStatusData(res *session.StatusResult) StatusData {
	data := StatusData{
		Exists:           res.Exists,
		CurrentPlayers:   res.CurrentPlayers,
		MaxPlayers:       res.MaxPlayers,
		RemainingSeconds: res.RemainingSeconds,
		CanAcceptPlayers: res.CanAcceptPlayers,
	}
	if res.Exists {
		data.Status = string(res.Status)
		data.SessionURL = res.SessionURL
		data.ExpiresAt = formatTime(res.ExpiresAt)
	}
	return data
}

func newActiveSessionData(sess *session.ActiveSession) ActiveSessionData {
	return ActiveSessionData{
		SessionID:      sess.ID,
		WorkspaceID:    sess.WorkspaceID,
		WorkspaceName:  sess.WorkspaceName,
		EngineType:     sess.EngineType,
		SessionURL:     sess.SessionURL,
		CurrentPlayers: sess.CurrentPlayers,
		MaxPlayers:     sess.MaxPlayers,
		ExpiresAt:      formatTime(sess.ExpiresAt),
		CreatedAt:      formatTime(sess.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
