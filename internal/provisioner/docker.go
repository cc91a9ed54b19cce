package provisioner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"gamehost/internal/config"
	"gamehost/internal/monitor"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

var _ Provisioner = (*DockerProvisioner)(nil)

// DockerProvisioner runs one game-server container per session on a local
// Docker engine. The container id doubles as the task handle.
type DockerProvisioner struct {
	client *client.Client
	cfg    config.ProvisionerConfig
	logger *slog.Logger
}

func NewDockerProvisioner(cli *client.Client, cfg config.ProvisionerConfig, logger *slog.Logger) *DockerProvisioner {
	return &DockerProvisioner{
		client: cli,
		cfg:    cfg,
		logger: logger.With("component", "provisioner"),
	}
}

func (p *DockerProvisioner) LaunchTask(ctx context.Context, spec LaunchSpec) (*LaunchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.LaunchTimeout)
	defer cancel()

	start := time.Now()

	if err := p.ensureImage(ctx); err != nil {
		monitor.TaskLaunchErrors.Inc()
		return nil, err
	}

	gamePort := nat.Port(fmt.Sprintf("%d/tcp", p.cfg.ContainerPort))

	containerCfg := &container.Config{
		Image: p.cfg.Image,
		Env: []string{
			"SESSION_ID=" + spec.SessionID,
			"WORKSPACE_ID=" + strconv.FormatInt(spec.WorkspaceID, 10),
			"COMPANY_ID=" + strconv.FormatInt(spec.CompanyID, 10),
			"MAX_PLAYERS=" + strconv.Itoa(spec.MaxPlayers),
		},
		ExposedPorts: nat.PortSet{gamePort: struct{}{}},
		Labels: map[string]string{
			"gamehost.session_id":   spec.SessionID,
			"gamehost.workspace_id": strconv.FormatInt(spec.WorkspaceID, 10),
			"gamehost.cluster":      p.cfg.Cluster,
			"gamehost.service":      "multiplayer",
		},
	}

	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			// 随机宿主机端口，inspect 后取回
			gamePort: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: ""}},
		},
		Resources: container.Resources{
			Memory:   p.cfg.ContainerMem * 1024 * 1024,
			NanoCPUs: int64(p.cfg.ContainerCPU * 1e9),
		},
	}

	var netCfg *network.NetworkingConfig
	if p.cfg.NetworkName != "" {
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				p.cfg.NetworkName: {},
			},
		}
	}

	resp, err := p.client.ContainerCreate(ctx, containerCfg, hostCfg, netCfg, nil, TaskName(spec.SessionID))
	if err != nil {
		monitor.TaskLaunchErrors.Inc()
		return nil, fmt.Errorf("%w: create: %v", ErrLaunchFailed, err)
	}

	if err := p.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.removeQuietly(resp.ID)
		monitor.TaskLaunchErrors.Inc()
		return nil, fmt.Errorf("%w: start: %v", ErrLaunchFailed, err)
	}

	hostPort, err := p.publishedPort(ctx, resp.ID, gamePort)
	if err != nil {
		p.stopQuietly(resp.ID)
		monitor.TaskLaunchErrors.Inc()
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	monitor.TaskLaunchLatency.Observe(time.Since(start).Seconds())

	url := fmt.Sprintf("http://%s:%s", p.cfg.PublicHost, hostPort)
	p.logger.Info("Task launched",
		"session_id", spec.SessionID,
		"task_arn", resp.ID,
		"session_url", url,
	)

	return &LaunchResult{TaskARN: resp.ID, SessionURL: url}, nil
}

func (p *DockerProvisioner) StopTask(ctx context.Context, taskARN string, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.StopTimeout)
	defer cancel()

	p.logger.Info("Stopping task", "task_arn", taskARN, "reason", reason)

	timeout := int(p.cfg.StopTimeout.Seconds())
	if err := p.client.ContainerStop(ctx, taskARN, container.StopOptions{Timeout: &timeout}); err != nil {
		if errdefs.IsNotFound(err) {
			return ErrTaskGone
		}
		return fmt.Errorf("%w: %v", ErrStopFailed, err)
	}

	if err := p.client.ContainerRemove(ctx, taskARN, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: remove: %v", ErrStopFailed, err)
	}

	return nil
}

func (p *DockerProvisioner) DescribeTask(ctx context.Context, taskARN string) (*TaskInfo, error) {
	inspect, err := p.client.ContainerInspect(ctx, taskARN)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, ErrTaskGone
		}
		return nil, err
	}

	info := &TaskInfo{TaskARN: taskARN, State: TaskStateStopped}
	if inspect.State != nil && inspect.State.Running {
		info.State = TaskStateRunning
		if t, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt); err == nil {
			info.StartedAt = t
		}
	}
	return info, nil
}

func (p *DockerProvisioner) ensureImage(ctx context.Context) error {
	_, err := p.client.ImageInspect(ctx, p.cfg.Image)
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: inspect: %v", ErrLaunchFailed, err)
	}

	p.logger.Info("Image not found, pulling...", "image", p.cfg.Image)
	reader, err := p.client.ImagePull(ctx, p.cfg.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImagePullFailed, err)
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("%w: %v", ErrImagePullFailed, err)
	}
	return nil
}

func (p *DockerProvisioner) publishedPort(ctx context.Context, containerID string, port nat.Port) (string, error) {
	inspect, err := p.client.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("inspect: %v", err)
	}
	if inspect.NetworkSettings == nil {
		return "", fmt.Errorf("no network settings for container %s", containerID)
	}
	bindings := inspect.NetworkSettings.Ports[port]
	if len(bindings) == 0 || bindings[0].HostPort == "" {
		return "", fmt.Errorf("port %s not published for container %s", port, containerID)
	}
	return bindings[0].HostPort, nil
}

// removeQuietly / stopQuietly clean up a half-launched container after a
// failed LaunchTask so no billable task outlives the error.
func (p *DockerProvisioner) removeQuietly(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		p.logger.Error("Failed to remove container after launch failure", "container_id", containerID, "error", err)
	}
}

func (p *DockerProvisioner) stopQuietly(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := p.StopTask(ctx, containerID, "launch failed"); err != nil && err != ErrTaskGone {
		p.logger.Error("Failed to stop container after launch failure", "container_id", containerID, "error", err)
	}
}
