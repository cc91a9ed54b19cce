package provisioner

import "context"

// Provisioner is the narrow capability the orchestrator needs from the
// container runtime: launch one game-server task, stop it, describe it.
// Keeping it this small lets tests substitute a fake for the real runtime.
type Provisioner interface {
	LaunchTask(ctx context.Context, spec LaunchSpec) (*LaunchResult, error)
	StopTask(ctx context.Context, taskARN string, reason string) error
	DescribeTask(ctx context.Context, taskARN string) (*TaskInfo, error)
}
