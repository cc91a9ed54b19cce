package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gamehost/internal/config"
	"gamehost/internal/eventbus"
	"gamehost/internal/monitor"
	"gamehost/internal/provisioner"
	"gamehost/internal/workspace"

	"github.com/google/uuid"
)

// ValidationError carries field-level detail for out-of-range inputs. It is
// never retried automatically and maps to an unprocessable-entity response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Orchestrator owns the session state machine. All liveness facts derive
// from the repository, never from process memory, so multiple instances
// stay consistent.
type Orchestrator struct {
	guard       *workspace.Guard
	provisioner provisioner.Provisioner
	repo        Repository
	bus         eventbus.EventBus
	cfg         config.SessionConfig
	logger      *slog.Logger
}

func NewOrchestrator(
	guard *workspace.Guard,
	prov provisioner.Provisioner,
	repo Repository,
	bus eventbus.EventBus,
	cfg config.SessionConfig,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		guard:       guard,
		provisioner: prov,
		repo:        repo,
		bus:         bus,
		cfg:         cfg,
		logger:      logger.With("component", "orchestrator"),
	}
}

// Start provisions a game-server task for the workspace, or returns the
// existing live session unchanged. The store is written only after the
// launch succeeds, so a provisioning failure leaves no record behind.
func (o *Orchestrator) Start(ctx context.Context, params StartParams) (*Session, error) {
	if err := o.validateStart(&params); err != nil {
		return nil, err
	}

	ws, err := o.guard.AuthorizeForHosting(ctx, params.WorkspaceID, params.CompanyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	existing, err := o.repo.FindActiveByWorkspace(ctx, params.WorkspaceID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Live(now) {
			monitor.SessionsReused.Inc()
			o.logger.Info("Reusing live session",
				"session_id", existing.ID,
				"workspace_id", params.WorkspaceID,
			)
			return existing, nil
		}
		// 过期但未清理的 session 会占住唯一索引，先回收
		if err := o.teardown(ctx, existing, StatusStopped, "Session expired"); err != nil {
			return nil, err
		}
	}

	sessionID := uuid.New().String()

	launch, err := o.provisioner.LaunchTask(ctx, provisioner.LaunchSpec{
		SessionID:   sessionID,
		WorkspaceID: ws.ID,
		CompanyID:   ws.CompanyID,
		MaxPlayers:  params.MaxPlayers,
	})
	if err != nil {
		o.logger.Error("Task launch failed",
			"workspace_id", params.WorkspaceID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	sess := &Session{
		ID:             sessionID,
		WorkspaceID:    ws.ID,
		Status:         StatusActive,
		MaxPlayers:     params.MaxPlayers,
		CurrentPlayers: 0,
		ExpiresAt:      now.Add(time.Duration(params.TTLMinutes) * time.Minute),
		SessionURL:     launch.SessionURL,
		TaskARN:        launch.TaskARN,
		CreatedAt:      now,
	}

	if err := o.repo.Create(ctx, sess); err != nil {
		// 先释放刚启动的 task，再处理错误
		o.stopTaskQuietly(launch.TaskARN, "lost provisioning race")

		if errors.Is(err, ErrActiveSessionExists) {
			winner, ferr := o.repo.FindActiveByWorkspace(ctx, params.WorkspaceID)
			if ferr == nil && winner != nil {
				o.logger.Info("Concurrent start resolved to existing session",
					"session_id", winner.ID,
					"workspace_id", params.WorkspaceID,
				)
				return winner, nil
			}
		}
		return nil, fmt.Errorf("persist session: %w", err)
	}

	monitor.SessionsStarted.Inc()
	o.publish(sess, eventbus.EventSessionStarted)

	o.logger.Info("Multiplayer session started",
		"session_id", sess.ID,
		"workspace_id", ws.ID,
		"task_arn", sess.TaskARN,
		"expires_at", sess.ExpiresAt,
	)

	return sess, nil
}

// Stop tears the session's task down and marks it stopped. Stopping an
// already-terminal session succeeds as a no-op.
func (o *Orchestrator) Stop(ctx context.Context, sessionID string, companyID int64) error {
	sess, err := o.authorize(ctx, sessionID, companyID)
	if err != nil {
		return err
	}

	if sess.Status.Terminal() {
		return nil
	}

	return o.teardown(ctx, sess, StatusStopped, "Session ended")
}

// GetStatus reads a session, sweeping it lazily if its TTL has lapsed while
// still active. The lazy path records the session as stopped, matching the
// behavior observable from the product; the expired status is reserved for
// the periodic sweep job.
func (o *Orchestrator) GetStatus(ctx context.Context, sessionID string, companyID int64) (*StatusResult, error) {
	sess, err := o.repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &StatusResult{Exists: false}, nil
		}
		return nil, err
	}

	if _, err := o.guard.Authorize(ctx, sess.WorkspaceID, companyID); err != nil {
		return nil, err
	}

	now := time.Now()
	if sess.Status == StatusActive && sess.Expired(now) {
		if err := o.teardown(ctx, sess, StatusStopped, "Session expired"); err != nil {
			return nil, err
		}
		sess.Status = StatusStopped
	}

	return &StatusResult{
		Exists:           true,
		Status:           sess.Status,
		SessionURL:       sess.SessionURL,
		CurrentPlayers:   sess.CurrentPlayers,
		MaxPlayers:       sess.MaxPlayers,
		ExpiresAt:        sess.ExpiresAt,
		RemainingSeconds: sess.RemainingSeconds(now),
		CanAcceptPlayers: sess.CanAcceptPlayers(),
	}, nil
}

// Stats is a read-only aggregate; it never sweeps, so a lapsed-but-unswept
// session still counts as active until something touches it.
func (o *Orchestrator) Stats(ctx context.Context, companyID int64) (*Stats, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return o.repo.StatsByCompany(ctx, companyID, dayStart)
}

func (o *Orchestrator) ListActive(ctx context.Context, companyID int64) ([]*ActiveSession, error) {
	return o.repo.ListActiveByCompany(ctx, companyID)
}

// SweepExpired stops every lapsed active session and marks it expired.
// Driven by the periodic sweep task, never by request handlers.
func (o *Orchestrator) SweepExpired(ctx context.Context) (int, error) {
	lapsed, err := o.repo.ListLapsedActive(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, sess := range lapsed {
		if err := o.teardown(ctx, sess, StatusExpired, "Session expired"); err != nil {
			o.logger.Error("Failed to sweep expired session",
				"session_id", sess.ID,
				"error", err,
			)
			continue
		}
		swept++
	}

	if swept > 0 {
		o.logger.Info("Cleaned up expired multiplayer sessions", "count", swept)
	}
	return swept, nil
}

// AuthorizeSession resolves a session and verifies the caller's company owns
// its workspace. Storage endpoints re-check ownership through this.
func (o *Orchestrator) AuthorizeSession(ctx context.Context, sessionID string, companyID int64) (*Session, *workspace.Workspace, error) {
	sess, err := o.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ws, err := o.guard.Authorize(ctx, sess.WorkspaceID, companyID)
	if err != nil {
		return nil, nil, err
	}
	return sess, ws, nil
}

func (o *Orchestrator) authorize(ctx context.Context, sessionID string, companyID int64) (*Session, error) {
	sess, _, err := o.AuthorizeSession(ctx, sessionID, companyID)
	return sess, err
}

// teardown stops the task and persists the terminal status. A task the
// runtime no longer knows still transitions; any other stop failure leaves
// the session active so a retry can find the still-billable task.
func (o *Orchestrator) teardown(ctx context.Context, sess *Session, terminal Status, reason string) error {
	if err := o.provisioner.StopTask(ctx, sess.TaskARN, reason); err != nil {
		if !errors.Is(err, provisioner.ErrTaskGone) {
			monitor.TaskStopErrors.Inc()
			return fmt.Errorf("%w: %v", ErrTeardownFailed, err)
		}
		o.logger.Warn("Task already gone, recording terminal state",
			"session_id", sess.ID,
			"task_arn", sess.TaskARN,
		)
	}

	if err := o.repo.UpdateStatus(ctx, sess.ID, terminal); err != nil {
		return fmt.Errorf("persist %s status: %w", terminal, err)
	}

	switch terminal {
	case StatusExpired:
		monitor.SessionsExpired.Inc()
		o.publish(sess, eventbus.EventSessionExpired)
	default:
		monitor.SessionsStopped.Inc()
		o.publish(sess, eventbus.EventSessionStopped)
	}

	o.logger.Info("Multiplayer session torn down",
		"session_id", sess.ID,
		"task_arn", sess.TaskARN,
		"status", terminal,
		"reason", reason,
	)
	return nil
}

func (o *Orchestrator) stopTaskQuietly(taskARN, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := o.provisioner.StopTask(ctx, taskARN, reason); err != nil && !errors.Is(err, provisioner.ErrTaskGone) {
		monitor.TaskStopErrors.Inc()
		o.logger.Error("Failed to stop surplus task", "task_arn", taskARN, "error", err)
	}
}

func (o *Orchestrator) publish(sess *Session, eventType eventbus.EventType) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := o.bus.Publish(ctx, sess.WorkspaceID, eventbus.Event{
		Type:      eventType,
		SessionID: sess.ID,
		Payload:   map[string]any{"session_url": sess.SessionURL},
		Timestamp: time.Now(),
	})
	if err != nil {
		o.logger.Error("Failed to publish session event",
			"session_id", sess.ID,
			"event", eventType,
			"error", err,
		)
	}
}

func (o *Orchestrator) validateStart(params *StartParams) error {
	fields := make(map[string]string)

	if params.WorkspaceID <= 0 {
		fields["workspace_id"] = "workspace_id is required"
	}

	if params.MaxPlayers == 0 {
		params.MaxPlayers = o.cfg.DefaultMaxPlayers
	}
	if params.MaxPlayers < o.cfg.MinPlayers || params.MaxPlayers > o.cfg.MaxPlayers {
		fields["max_players"] = fmt.Sprintf("max_players must be between %d and %d",
			o.cfg.MinPlayers, o.cfg.MaxPlayers)
	}

	if params.TTLMinutes == 0 {
		params.TTLMinutes = o.cfg.DefaultTTLMinutes
	}
	if params.TTLMinutes < o.cfg.MinTTLMinutes || params.TTLMinutes > o.cfg.MaxTTLMinutes {
		fields["ttl_minutes"] = fmt.Sprintf("ttl_minutes must be between %d and %d",
			o.cfg.MinTTLMinutes, o.cfg.MaxTTLMinutes)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
