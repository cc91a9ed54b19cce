package session_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gamehost/internal/config"
	"gamehost/internal/eventbus"
	"gamehost/internal/provisioner"
	"gamehost/internal/session"
	"gamehost/internal/workspace"
)

// fakeProvisioner records launch/stop calls and can be programmed to fail.
type fakeProvisioner struct {
	mu        sync.Mutex
	launches  int
	stops     []string
	launchErr error
	stopErr   error
	onStop    func(taskARN string)
}

func (f *fakeProvisioner) LaunchTask(ctx context.Context, spec provisioner.LaunchSpec) (*provisioner.LaunchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.launches++
	return &provisioner.LaunchResult{
		TaskARN:    "task-" + spec.SessionID,
		SessionURL: fmt.Sprintf("http://localhost:3%04d", f.launches),
	}, nil
}

func (f *fakeProvisioner) StopTask(ctx context.Context, taskARN string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return f.stopErr
	}
	if f.onStop != nil {
		f.onStop(taskARN)
	}
	f.stops = append(f.stops, taskARN)
	return nil
}

func (f *fakeProvisioner) DescribeTask(ctx context.Context, taskARN string) (*provisioner.TaskInfo, error) {
	return &provisioner.TaskInfo{TaskARN: taskARN, State: provisioner.TaskStateRunning}, nil
}

func (f *fakeProvisioner) launchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launches
}

func (f *fakeProvisioner) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stops)
}

// memRepo is an in-memory session.Repository backed by the same workspace
// fixture the guard reads, so company scoping behaves like the real joins.
type memRepo struct {
	mu             sync.Mutex
	sessions       map[string]*session.Session
	workspaces     map[int64]*workspace.Workspace
	hideActiveOnce bool
}

func newMemRepo(workspaces map[int64]*workspace.Workspace) *memRepo {
	return &memRepo{
		sessions:   make(map[string]*session.Session),
		workspaces: workspaces,
	}
}

func (r *memRepo) Create(ctx context.Context, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.WorkspaceID == sess.WorkspaceID && existing.Status == session.StatusActive {
			return session.ErrActiveSessionExists
		}
	}
	cp := *sess
	r.sessions[sess.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *memRepo) FindActiveByWorkspace(ctx context.Context, workspaceID int64) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideActiveOnce {
		r.hideActiveOnce = false
		return nil, session.ErrNotFound
	}
	for _, sess := range r.sessions {
		if sess.WorkspaceID == workspaceID && sess.Status == session.StatusActive {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, session.ErrNotFound
}

func (r *memRepo) UpdateStatus(ctx context.Context, id string, status session.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	if sess.Status.Terminal() {
		return nil
	}
	sess.Status = status
	return nil
}

func (r *memRepo) ListActiveByCompany(ctx context.Context, companyID int64) ([]*session.ActiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*session.ActiveSession
	for _, sess := range r.sessions {
		ws, ok := r.workspaces[sess.WorkspaceID]
		if !ok || ws.CompanyID != companyID || sess.Status != session.StatusActive {
			continue
		}
		out = append(out, &session.ActiveSession{
			Session:       *sess,
			WorkspaceName: ws.Name,
			EngineType:    ws.EngineType,
		})
	}
	return out, nil
}

func (r *memRepo) ListLapsedActive(ctx context.Context, now time.Time) ([]*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*session.Session
	for _, sess := range r.sessions {
		if sess.Status == session.StatusActive && now.After(sess.ExpiresAt) {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) StatsByCompany(ctx context.Context, companyID int64, dayStart time.Time) (*session.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &session.Stats{}
	for _, sess := range r.sessions {
		ws, ok := r.workspaces[sess.WorkspaceID]
		if !ok || ws.CompanyID != companyID {
			continue
		}
		if sess.Status == session.StatusActive {
			stats.ActiveSessions++
		}
		if sess.Status == session.StatusExpired {
			stats.ExpiredSessions++
		}
		if !sess.CreatedAt.Before(dayStart) {
			stats.TotalSessionsToday++
		}
	}
	return stats, nil
}

// setExpiry rewrites a stored session's TTL so tests can lapse it.
func (r *memRepo) setExpiry(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		sess.ExpiresAt = at
	}
}

type memWorkspaceRepo struct {
	workspaces map[int64]*workspace.Workspace
}

func (r *memWorkspaceRepo) GetByID(ctx context.Context, id int64) (*workspace.Workspace, error) {
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	return ws, nil
}

type memBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *memBus) Publish(ctx context.Context, workspaceID int64, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, workspaceID int64) (<-chan eventbus.Event, error) {
	ch := make(chan eventbus.Event)
	close(ch)
	return ch, nil
}

type testEnv struct {
	orch *session.Orchestrator
	repo *memRepo
	prov *fakeProvisioner
	bus  *memBus
}

const (
	companyA = int64(1)
	companyB = int64(2)

	wsPlayCanvasA = int64(10)
	wsUnrealA     = int64(11)
	wsPlayCanvasB = int64(20)
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	workspaces := map[int64]*workspace.Workspace{
		wsPlayCanvasA: {ID: wsPlayCanvasA, CompanyID: companyA, Name: "space-shooter", EngineType: "playcanvas"},
		wsUnrealA:     {ID: wsUnrealA, CompanyID: companyA, Name: "fps-demo", EngineType: "unreal"},
		wsPlayCanvasB: {ID: wsPlayCanvasB, CompanyID: companyB, Name: "kart-racer", EngineType: "playcanvas"},
	}

	repo := newMemRepo(workspaces)
	prov := &fakeProvisioner{}
	bus := &memBus{}
	guard := workspace.NewGuard(&memWorkspaceRepo{workspaces: workspaces}, "playcanvas")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.SessionConfig{
		EligibleEngine:    "playcanvas",
		DefaultMaxPlayers: 8,
		MinPlayers:        2,
		MaxPlayers:        16,
		DefaultTTLMinutes: 40,
		MinTTLMinutes:     10,
		MaxTTLMinutes:     120,
	}

	return &testEnv{
		orch: session.NewOrchestrator(guard, prov, repo, bus, cfg, logger),
		repo: repo,
		prov: prov,
		bus:  bus,
	}
}

func (e *testEnv) start(t *testing.T, workspaceID, companyID int64) *session.Session {
	t.Helper()
	sess, err := e.orch.Start(context.Background(), session.StartParams{
		WorkspaceID: workspaceID,
		CompanyID:   companyID,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return sess
}

func TestStartProvisionsSession(t *testing.T) {
	env := newTestEnv(t)

	sess := env.start(t, wsPlayCanvasA, companyA)

	if sess.Status != session.StatusActive {
		t.Errorf("expected active status, got %s", sess.Status)
	}
	if sess.SessionURL == "" {
		t.Error("expected session URL to be set")
	}
	if sess.TaskARN == "" {
		t.Error("expected task ARN to be set")
	}
	if sess.MaxPlayers != 8 {
		t.Errorf("expected default max players 8, got %d", sess.MaxPlayers)
	}
	if remaining := time.Until(sess.ExpiresAt); remaining < 39*time.Minute || remaining > 41*time.Minute {
		t.Errorf("expected ~40m TTL, got %s", remaining)
	}
	if env.prov.launchCount() != 1 {
		t.Errorf("expected 1 launch, got %d", env.prov.launchCount())
	}

	stored, err := env.repo.GetByID(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if stored.TaskARN != sess.TaskARN {
		t.Errorf("persisted task ARN mismatch: %s != %s", stored.TaskARN, sess.TaskARN)
	}
}

func TestStartIsIdempotentPerWorkspace(t *testing.T) {
	env := newTestEnv(t)

	first := env.start(t, wsPlayCanvasA, companyA)
	second := env.start(t, wsPlayCanvasA, companyA)

	if first.ID != second.ID {
		t.Errorf("expected same session id, got %s and %s", first.ID, second.ID)
	}
	if env.prov.launchCount() != 1 {
		t.Errorf("expected exactly 1 launch, got %d", env.prov.launchCount())
	}
}

func TestStartRejectsUnsupportedEngine(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orch.Start(context.Background(), session.StartParams{
		WorkspaceID: wsUnrealA,
		CompanyID:   companyA,
	})
	if !errors.Is(err, workspace.ErrUnsupportedEngine) {
		t.Fatalf("expected ErrUnsupportedEngine, got %v", err)
	}
	if env.prov.launchCount() != 0 {
		t.Errorf("expected no launches, got %d", env.prov.launchCount())
	}
}

func TestStartRejectsForeignWorkspace(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orch.Start(context.Background(), session.StartParams{
		WorkspaceID: wsPlayCanvasB,
		CompanyID:   companyA,
	})
	if !errors.Is(err, workspace.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if env.prov.launchCount() != 0 {
		t.Errorf("expected no launches, got %d", env.prov.launchCount())
	}
}

func TestStartValidatesBounds(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		params   session.StartParams
		badField string
	}{
		{
			name:     "missing workspace",
			params:   session.StartParams{CompanyID: companyA},
			badField: "workspace_id",
		},
		{
			name:     "max players below floor",
			params:   session.StartParams{WorkspaceID: wsPlayCanvasA, CompanyID: companyA, MaxPlayers: 1},
			badField: "max_players",
		},
		{
			name:     "max players above ceiling",
			params:   session.StartParams{WorkspaceID: wsPlayCanvasA, CompanyID: companyA, MaxPlayers: 17},
			badField: "max_players",
		},
		{
			name:     "ttl below floor",
			params:   session.StartParams{WorkspaceID: wsPlayCanvasA, CompanyID: companyA, TTLMinutes: 5},
			badField: "ttl_minutes",
		},
		{
			name:     "ttl above ceiling",
			params:   session.StartParams{WorkspaceID: wsPlayCanvasA, CompanyID: companyA, TTLMinutes: 121},
			badField: "ttl_minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orch.Start(context.Background(), tt.params)

			var verr *session.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.badField]; !ok {
				t.Errorf("expected field %q in %v", tt.badField, verr.Fields)
			}
			if env.prov.launchCount() != 0 {
				t.Errorf("expected no launches, got %d", env.prov.launchCount())
			}
		})
	}
}

func TestStartAcceptsBoundaryValues(t *testing.T) {
	env := newTestEnv(t)

	sess, err := env.orch.Start(context.Background(), session.StartParams{
		WorkspaceID: wsPlayCanvasA,
		CompanyID:   companyA,
		MaxPlayers:  2,
		TTLMinutes:  10,
	})
	if err != nil {
		t.Fatalf("boundary values rejected: %v", err)
	}
	if sess.MaxPlayers != 2 {
		t.Errorf("expected max players 2, got %d", sess.MaxPlayers)
	}
}

func TestStartProvisioningFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t)
	env.prov.launchErr = provisioner.ErrLaunchFailed

	_, err := env.orch.Start(context.Background(), session.StartParams{
		WorkspaceID: wsPlayCanvasA,
		CompanyID:   companyA,
	})
	if !errors.Is(err, session.ErrProvisioningFailed) {
		t.Fatalf("expected ErrProvisioningFailed, got %v", err)
	}

	if _, err := env.repo.FindActiveByWorkspace(context.Background(), wsPlayCanvasA); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected no session record, got %v", err)
	}
}

func TestStartRaceLoserReturnsWinner(t *testing.T) {
	env := newTestEnv(t)

	winner := env.start(t, wsPlayCanvasA, companyA)

	// 模拟输掉唯一索引竞争：第一次查不到赢家，插入报冲突，复查才看到
	env.repo.hideActiveOnce = true

	sess, err := env.orch.Start(context.Background(), session.StartParams{
		WorkspaceID: wsPlayCanvasA,
		CompanyID:   companyA,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sess.ID != winner.ID {
		t.Errorf("expected winner session %s, got %s", winner.ID, sess.ID)
	}
	if env.prov.launchCount() != 2 {
		t.Errorf("expected the loser to have launched, got %d launches", env.prov.launchCount())
	}
	if env.prov.stopCount() != 1 {
		t.Errorf("expected the surplus task to be stopped, got %d stops", env.prov.stopCount())
	}
}

func TestStartReplacesLapsedSession(t *testing.T) {
	env := newTestEnv(t)

	old := env.start(t, wsPlayCanvasA, companyA)
	env.repo.setExpiry(old.ID, time.Now().Add(-time.Minute))

	fresh := env.start(t, wsPlayCanvasA, companyA)

	if fresh.ID == old.ID {
		t.Error("expected a new session for a lapsed workspace")
	}
	stored, _ := env.repo.GetByID(context.Background(), old.ID)
	if stored.Status != session.StatusStopped {
		t.Errorf("expected lapsed session stopped, got %s", stored.Status)
	}
	if env.prov.launchCount() != 2 {
		t.Errorf("expected 2 launches, got %d", env.prov.launchCount())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	sess := env.start(t, wsPlayCanvasA, companyA)

	if err := env.orch.Stop(context.Background(), sess.ID, companyA); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	stopsAfterFirst := env.prov.stopCount()

	if err := env.orch.Stop(context.Background(), sess.ID, companyA); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	if env.prov.stopCount() != stopsAfterFirst {
		t.Errorf("expected no further stop calls, got %d", env.prov.stopCount()-stopsAfterFirst)
	}

	stored, _ := env.repo.GetByID(context.Background(), sess.ID)
	if stored.Status != session.StatusStopped {
		t.Errorf("expected stopped status, got %s", stored.Status)
	}
}

func TestStopTreatsGoneTaskAsStopped(t *testing.T) {
	env := newTestEnv(t)
	sess := env.start(t, wsPlayCanvasA, companyA)

	env.prov.stopErr = provisioner.ErrTaskGone

	if err := env.orch.Stop(context.Background(), sess.ID, companyA); err != nil {
		t.Fatalf("stop should succeed when task is gone: %v", err)
	}

	stored, _ := env.repo.GetByID(context.Background(), sess.ID)
	if stored.Status != session.StatusStopped {
		t.Errorf("expected stopped status, got %s", stored.Status)
	}
}

func TestStopFailureLeavesSessionActive(t *testing.T) {
	env := newTestEnv(t)
	sess := env.start(t, wsPlayCanvasA, companyA)

	env.prov.stopErr = provisioner.ErrStopFailed

	err := env.orch.Stop(context.Background(), sess.ID, companyA)
	if !errors.Is(err, session.ErrTeardownFailed) {
		t.Fatalf("expected ErrTeardownFailed, got %v", err)
	}

	stored, _ := env.repo.GetByID(context.Background(), sess.ID)
	if stored.Status != session.StatusActive {
		t.Errorf("expected session to stay active for retry, got %s", stored.Status)
	}
}

func TestStopLosingRaceWithSweepKeepsExpired(t *testing.T) {
	env := newTestEnv(t)
	sess := env.start(t, wsPlayCanvasA, companyA)

	// 在 Stop 的读与写之间，后台 sweep 先把状态写成 expired
	env.prov.onStop = func(string) {
		_ = env.repo.UpdateStatus(context.Background(), sess.ID, session.StatusExpired)
	}

	if err := env.orch.Stop(context.Background(), sess.ID, companyA); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	stored, _ := env.repo.GetByID(context.Background(), sess.ID)
	if stored.Status != session.StatusExpired {
		t.Errorf("stop overwrote the sweep's terminal state: got %s", stored.Status)
	}
}

func TestStopUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	err := env.orch.Stop(context.Background(), "no-such-session", companyA)
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusSweepsLapsedSession(t *testing.T) {
	env := newTestEnv(t)
	sess := env.start(t, wsPlayCanvasA, companyA)
	env.repo.setExpiry(sess.ID, time.Now().Add(-time.Minute))

	res, err := env.orch.GetStatus(context.Background(), sess.ID, companyA)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}

	if res.Status != session.StatusStopped {
		t.Errorf("expected stopped in the same call, got %s", res.Status)
	}
	if res.CanAcceptPlayers {
		t.Error("stopped session must not accept players")
	}
	if env.prov.stopCount() != 1 {
		t.Errorf("expected 1 stop call, got %d", env.prov.stopCount())
	}

	stored, _ := env.repo.GetByID(context.Background(), sess.ID)
	if stored.Status != session.StatusStopped {
		t.Errorf("expected persisted stopped status, got %s", stored.Status)
	}
}

func TestStatusMissingSession(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.orch.GetStatus(context.Background(), "no-such-session", companyA)
	if err != nil {
		t.Fatalf("missing session must not error: %v", err)
	}
	if res.Exists {
		t.Error("expected exists=false")
	}
}

func TestStatusReportsCapacity(t *testing.T) {
	env := newTestEnv(t)
	sess := env.start(t, wsPlayCanvasA, companyA)

	res, err := env.orch.GetStatus(context.Background(), sess.ID, companyA)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if !res.Exists {
		t.Fatal("expected exists=true")
	}
	if !res.CanAcceptPlayers {
		t.Error("fresh session should accept players")
	}
	if res.MaxPlayers != 8 || res.CurrentPlayers != 0 {
		t.Errorf("unexpected capacity %d/%d", res.CurrentPlayers, res.MaxPlayers)
	}
	if res.RemainingSeconds <= 0 {
		t.Error("expected positive remaining time")
	}
}

func TestStatsCountsByCompany(t *testing.T) {
	env := newTestEnv(t)

	// two live sessions and one explicitly stopped, all created today
	first := env.start(t, wsPlayCanvasA, companyA)
	if err := env.orch.Stop(context.Background(), first.ID, companyA); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	env.start(t, wsPlayCanvasA, companyA)

	// second live session on a different workspace of the same company
	other := &session.Session{
		ID:          "manual-b",
		WorkspaceID: wsUnrealA,
		Status:      session.StatusActive,
		MaxPlayers:  8,
		ExpiresAt:   time.Now().Add(time.Hour),
		CreatedAt:   time.Now(),
	}
	_ = env.repo.Create(context.Background(), other)

	stats, err := env.orch.Stats(context.Background(), companyA)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveSessions != 2 {
		t.Errorf("expected 2 active sessions, got %d", stats.ActiveSessions)
	}
	if stats.TotalSessionsToday != 3 {
		t.Errorf("expected 3 sessions today, got %d", stats.TotalSessionsToday)
	}
	if stats.ExpiredSessions != 0 {
		t.Errorf("expected 0 expired sessions, got %d", stats.ExpiredSessions)
	}
}

func TestListActiveIsolatesCompanies(t *testing.T) {
	env := newTestEnv(t)

	sessA := env.start(t, wsPlayCanvasA, companyA)
	sessB := env.start(t, wsPlayCanvasB, companyB)

	listA, err := env.orch.ListActive(context.Background(), companyA)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(listA) != 1 {
		t.Fatalf("expected 1 session for company A, got %d", len(listA))
	}
	if listA[0].ID != sessA.ID {
		t.Errorf("expected session %s, got %s", sessA.ID, listA[0].ID)
	}
	if listA[0].WorkspaceName != "space-shooter" || listA[0].EngineType != "playcanvas" {
		t.Errorf("missing workspace identity: %+v", listA[0])
	}

	for _, sess := range listA {
		if sess.ID == sessB.ID {
			t.Error("company A listing leaked company B's session")
		}
	}
}

func TestSweepExpiredMarksSessionsExpired(t *testing.T) {
	env := newTestEnv(t)

	lapsed := env.start(t, wsPlayCanvasA, companyA)
	env.repo.setExpiry(lapsed.ID, time.Now().Add(-time.Minute))
	live := env.start(t, wsPlayCanvasB, companyB)

	swept, err := env.orch.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("expected 1 swept session, got %d", swept)
	}

	stored, _ := env.repo.GetByID(context.Background(), lapsed.ID)
	if stored.Status != session.StatusExpired {
		t.Errorf("expected expired status, got %s", stored.Status)
	}

	untouched, _ := env.repo.GetByID(context.Background(), live.ID)
	if untouched.Status != session.StatusActive {
		t.Errorf("live session must survive the sweep, got %s", untouched.Status)
	}
}

func TestLifecycleEventsPublished(t *testing.T) {
	env := newTestEnv(t)

	sess := env.start(t, wsPlayCanvasA, companyA)
	if err := env.orch.Stop(context.Background(), sess.ID, companyA); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	env.bus.mu.Lock()
	defer env.bus.mu.Unlock()
	if len(env.bus.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(env.bus.events))
	}
	if env.bus.events[0].Type != eventbus.EventSessionStarted {
		t.Errorf("expected started event first, got %s", env.bus.events[0].Type)
	}
	if env.bus.events[1].Type != eventbus.EventSessionStopped {
		t.Errorf("expected stopped event second, got %s", env.bus.events[1].Type)
	}
}
