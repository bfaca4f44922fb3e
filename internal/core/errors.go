package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoExitStatus 外部命令没有退出状态
	ErrNoExitStatus = errors.New("未获取到退出状态")
	// ErrNonZeroExit 外部命令或容器退出码非零
	ErrNonZeroExit = errors.New("退出码非零")
	// ErrStderr 外部命令错误输出非空
	ErrStderr = errors.New("错误输出非空")
	// ErrEmptyContainerID 启动命令没有输出容器ID
	ErrEmptyContainerID = errors.New("未返回容器ID")
)

// DispatchPhase 派发阶段
type DispatchPhase string

const (
	PhaseLaunch    DispatchPhase = "launch"    // docker run -d
	PhaseWait      DispatchPhase = "wait"      // docker wait
	PhaseContainer DispatchPhase = "container" // 容器自身退出码
)

// DispatchError 分块派发的致命错误
type DispatchError struct {
	Phase    DispatchPhase
	Chunk    int
	ExitCode int
	Stderr   string
	Err      error
}

// Error 实现error接口
func (e *DispatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "分块 %d 爬取失败 [%s]: %v", e.Chunk, e.Phase, e.Err)
	if errors.Is(e.Err, ErrNonZeroExit) {
		fmt.Fprintf(&b, " (退出码 %d)", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", stderr)
	}
	return b.String()
}

// Unwrap 支持errors.Is/errors.As
func (e *DispatchError) Unwrap() error {
	return e.Err
}
