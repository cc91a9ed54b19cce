package provisioner

import "errors"

var (
	ErrLaunchFailed = errors.New("failed to launch task")

	ErrStopFailed = errors.New("failed to stop task")

	// ErrTaskGone means the runtime no longer knows the task. Callers treat
	// this as a successful stop: terminal cloud state wins over bookkeeping.
	ErrTaskGone = errors.New("task not found")

	ErrImagePullFailed = errors.New("failed to pull image")
)
