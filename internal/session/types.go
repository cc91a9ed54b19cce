package session

import (
	"time"
)

type Status string

// The only non-terminal status is Active. Stopped and Expired are both
// absorbing; they differ only in how the teardown happened (explicit stop or
// lazy expiry vs the periodic sweep), not in behavior.
const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	StatusExpired Status = "expired"
)

func (s Status) Terminal() bool {
	return s == StatusStopped || s == StatusExpired
}

type Session struct {
	ID             string    `json:"id"`
	WorkspaceID    int64     `json:"workspace_id"`
	Status         Status    `json:"status"`
	MaxPlayers     int       `json:"max_players"`
	CurrentPlayers int       `json:"current_players"`
	ExpiresAt      time.Time `json:"expires_at"`
	SessionURL     string    `json:"session_url"`
	TaskARN        string    `json:"fargate_task_arn"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Live reports whether the session still owes a running task: active and
// not yet past its TTL.
func (s *Session) Live(now time.Time) bool {
	return s.Status == StatusActive && !s.Expired(now)
}

func (s *Session) CanAcceptPlayers() bool {
	return s.Status == StatusActive && s.CurrentPlayers < s.MaxPlayers
}

func (s *Session) RemainingSeconds(now time.Time) int64 {
	if s.Status != StatusActive {
		return 0
	}
	remaining := int64(s.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StartParams are the validated inputs to Orchestrator.Start.
type StartParams struct {
	WorkspaceID int64
	CompanyID   int64
	MaxPlayers  int // 0 means use the configured default
	TTLMinutes  int // 0 means use the configured default
}

// StatusResult mirrors what the status endpoint returns. A missing session
// is Exists=false, not an error, so polling stays cheap.
type StatusResult struct {
	Exists           bool
	Status           Status
	SessionURL       string
	CurrentPlayers   int
	MaxPlayers       int
	ExpiresAt        time.Time
	RemainingSeconds int64
	CanAcceptPlayers bool
}

type Stats struct {
	ActiveSessions     int `json:"active_sessions"`
	TotalSessionsToday int `json:"total_sessions_today"`
	ExpiredSessions    int `json:"expired_sessions"`
}

// ActiveSession is a session enriched with workspace identity for listings.
type ActiveSession struct {
	Session
	WorkspaceName string `json:"workspace_name"`
	EngineType    string `json:"engine_type"`
}
