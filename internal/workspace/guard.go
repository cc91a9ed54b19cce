package workspace

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrAccessDenied = errors.New("access denied to this workspace")

	ErrUnsupportedEngine = errors.New("multiplayer sessions are not supported for this engine type")
)

// Guard verifies that a caller's company owns a workspace and that the
// workspace's engine is eligible for hosting. Every orchestrator operation
// goes through it before touching the provisioner or the store.
type Guard struct {
	repo           Repository
	eligibleEngine string
}

func NewGuard(repo Repository, eligibleEngine string) *Guard {
	return &Guard{repo: repo, eligibleEngine: eligibleEngine}
}

// Authorize checks ownership only. Used by operations on existing sessions,
// where the engine was already vetted at creation time.
func (g *Guard) Authorize(ctx context.Context, workspaceID, companyID int64) (*Workspace, error) {
	ws, err := g.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.CompanyID != companyID {
		return nil, ErrAccessDenied
	}
	return ws, nil
}

// AuthorizeForHosting additionally checks engine eligibility. Used by Start.
func (g *Guard) AuthorizeForHosting(ctx context.Context, workspaceID, companyID int64) (*Workspace, error) {
	ws, err := g.Authorize(ctx, workspaceID, companyID)
	if err != nil {
		return nil, err
	}
	if ws.EngineType != g.eligibleEngine {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, ws.EngineType)
	}
	return ws, nil
}
