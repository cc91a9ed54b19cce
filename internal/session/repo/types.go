package repo

import (
	"time"

	"gamehost/internal/session"
)

const sessionCacheTTL = time.Minute * 5

type SessionModel struct {
	tableName struct{} `pg:"multiplayer_sessions,alias:ms"`

	ID             string         `json:"id" pg:"id,pk"`
	WorkspaceID    int64          `json:"workspace_id" pg:"workspace_id,notnull"`
	Status         session.Status `json:"status" pg:"status,notnull"`
	MaxPlayers     int            `json:"max_players" pg:"max_players,notnull,use_zero"`
	CurrentPlayers int            `json:"current_players" pg:"current_players,notnull,use_zero"`
	ExpiresAt      time.Time      `json:"expires_at" pg:"expires_at,notnull"`
	SessionURL     string         `json:"session_url" pg:"session_url"`
	TaskARN        string         `json:"fargate_task_arn" pg:"fargate_task_arn"`
	CreatedAt      time.Time      `json:"created_at" pg:"created_at,notnull"`
}

// activeSessionRow joins a session with the identity columns of its
// workspace for company-scoped listings.
type activeSessionRow struct {
	SessionModel
	WorkspaceName string `pg:"workspace_name"`
	EngineType    string `pg:"engine_type"`
}

func (m *SessionModel) toSession() *session.Session {
	return &session.Session{
		ID:             m.ID,
		WorkspaceID:    m.WorkspaceID,
		Status:         m.Status,
		MaxPlayers:     m.MaxPlayers,
		CurrentPlayers: m.CurrentPlayers,
		ExpiresAt:      m.ExpiresAt,
		SessionURL:     m.SessionURL,
		TaskARN:        m.TaskARN,
		CreatedAt:      m.CreatedAt,
	}
}

func newSessionModel(s *session.Session) *SessionModel {
	return &SessionModel{
		ID:             s.ID,
		WorkspaceID:    s.WorkspaceID,
		Status:         s.Status,
		MaxPlayers:     s.MaxPlayers,
		CurrentPlayers: s.CurrentPlayers,
		ExpiresAt:      s.ExpiresAt,
		SessionURL:     s.SessionURL,
		TaskARN:        s.TaskARN,
		CreatedAt:      s.CreatedAt,
	}
}

func sessionCacheKey(sessionID string) string {
	return "mpsession:" + sessionID
}
