package crawlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// LaunchResult 后台启动调用的结果
type LaunchResult struct {
	ID       string // 容器ID(已去除首尾空白)
	ExitCode *int   // 启动命令退出码, 无法获取时为nil
	Stderr   string
}

// WaitResult 阻塞等待调用的结果
type WaitResult struct {
	ExitCode *int   // wait 命令自身的退出码, 无法获取时为nil
	Stdout   string // docker wait 在stdout输出容器退出码
	Stderr   string
}

// ContainerExitCode 解析 wait 输出中的容器退出码
func (r WaitResult) ContainerExitCode() (int, bool) {
	out := strings.TrimSpace(r.Stdout)
	if out == "" {
		return 0, false
	}
	code, err := strconv.Atoi(out)
	if err != nil {
		return 0, false
	}
	return code, true
}

// ProcessRunner 两阶段外部进程客户端
// Launch 后台启动爬取并返回标识, Wait 阻塞直到该标识对应的爬取结束
type ProcessRunner interface {
	Launch(ctx context.Context, args []string) (LaunchResult, error)
	Wait(ctx context.Context, id string) (WaitResult, error)
}

// DockerRunner 通过docker命令行实现ProcessRunner
type DockerRunner struct {
	Binary string // docker 可执行文件
}

// NewDockerRunner 创建docker客户端
func NewDockerRunner(binary string) *DockerRunner {
	if binary == "" {
		binary = "docker"
	}
	return &DockerRunner{Binary: binary}
}

// Launch 执行 docker run -d ..., stdout 为容器ID
func (r *DockerRunner) Launch(ctx context.Context, args []string) (LaunchResult, error) {
	res, err := r.run(ctx, args...)
	if err != nil {
		return LaunchResult{}, err
	}
	return LaunchResult{
		ID:       strings.TrimSpace(res.stdout),
		ExitCode: res.exitCode,
		Stderr:   res.stderr,
	}, nil
}

// Wait 执行 docker wait <id>, 阻塞直到容器退出
func (r *DockerRunner) Wait(ctx context.Context, id string) (WaitResult, error) {
	res, err := r.run(ctx, "wait", id)
	if err != nil {
		return WaitResult{}, err
	}
	return WaitResult{
		ExitCode: res.exitCode,
		Stdout:   res.stdout,
		Stderr:   res.stderr,
	}, nil
}

type execResult struct {
	exitCode *int
	stdout   string
	stderr   string
}

// run 执行命令并收集输出
// 进程正常退出(含非零退出码)不视为错误, 由调用方判定; 只有无法启动才返回error
func (r *DockerRunner) run(ctx context.Context, args ...string) (execResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return execResult{}, fmt.Errorf("执行%s失败: %w", r.Binary, err)
	}

	res := execResult{stdout: stdout.String(), stderr: stderr.String()}
	if cmd.ProcessState != nil {
		// 被信号终止时 ExitCode 返回 -1, 视为没有退出状态
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			res.exitCode = &code
		}
	}
	return res, nil
}
