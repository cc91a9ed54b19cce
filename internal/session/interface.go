package session

import (
	"context"
	"time"
)

type Repository interface {
	// Create persists a new session. Returns ErrActiveSessionExists if the
	// workspace already holds a live row (unique partial index).
	Create(ctx context.Context, sess *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	FindActiveByWorkspace(ctx context.Context, workspaceID int64) (*Session, error)
	// UpdateStatus transitions an active session to the given status.
	// Terminal states are absorbing: writing over an already-terminal row
	// is a no-op, so racing teardowns resolve to whoever wrote first.
	UpdateStatus(ctx context.Context, id string, status Status) error
	ListActiveByCompany(ctx context.Context, companyID int64) ([]*ActiveSession, error)
	ListLapsedActive(ctx context.Context, now time.Time) ([]*Session, error)
	StatsByCompany(ctx context.Context, companyID int64, dayStart time.Time) (*Stats, error)
}
