package provisioner

import "time"

// LaunchSpec carries everything a task needs to come up bound to one
// workspace. MaxPlayers is injected into the container environment so the
// game server can enforce its own capacity.
type LaunchSpec struct {
	SessionID   string
	WorkspaceID int64
	CompanyID   int64
	MaxPlayers  int
}

// LaunchResult is the handle for a running task. TaskARN is opaque to
// callers; the Docker implementation uses the container id.
type LaunchResult struct {
	TaskARN    string
	SessionURL string
}

type TaskState string

const (
	TaskStateRunning TaskState = "running"
	TaskStateStopped TaskState = "stopped"
)

type TaskInfo struct {
	TaskARN   string
	State     TaskState
	StartedAt time.Time
}

func TaskName(sessionID string) string {
	return "mpserver-" + sessionID
}
