package core

import (
	"context"

	"github.com/RecoveryAshes/TrixHarvest/internal/crawlers"
	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
)

// Dispatcher 分块派发器
// 写出分块URL文件, 启动爬取容器并阻塞等待其结束; 任何异常都是致命的, 不重试
type Dispatcher struct {
	runner crawlers.ProcessRunner
	layout models.ChunkLayout
	mounts crawlers.Mounts
	image  string
	crawl  models.CrawlConfig
}

// NewDispatcher 创建分块派发器
func NewDispatcher(cfg *Config, runner crawlers.ProcessRunner) *Dispatcher {
	return &Dispatcher{
		runner: runner,
		layout: cfg.Layout(),
		mounts: cfg.Mounts(),
		image:  cfg.Docker.Image,
		crawl:  cfg.Crawl,
	}
}

// WriteURLList 写出分块的URL列表文件, 这是交给爬取器的唯一输入
func (d *Dispatcher) WriteURLList(chunk *models.Chunk) (string, error) {
	path := d.layout.URLListPath(chunk.Index)
	if err := utils.WriteLines(path, chunk.URLs); err != nil {
		return "", err
	}
	return path, nil
}

// Dispatch 派发一个分块
// 执行流程:
//  1. 写出 url_chunks/{index}.txt
//  2. docker run -d 启动容器, 读取容器ID
//  3. docker wait 阻塞等待容器退出
//
// 成功要求每一步都有退出状态、退出码为0且stderr为空
func (d *Dispatcher) Dispatch(ctx context.Context, chunk *models.Chunk) error {
	path, err := d.WriteURLList(chunk)
	if err != nil {
		return err
	}
	utils.Debugf("分块URL文件: %s (%d 个URL)", path, len(chunk.URLs))

	args, err := crawlers.BuildRunArgs(crawlers.RunSpec{
		Image:      d.image,
		Mounts:     d.mounts,
		Collection: chunk.Name(),
		Crawl:      d.crawl,
	})
	if err != nil {
		return err
	}

	id, err := d.launch(ctx, chunk.Index, args)
	if err != nil {
		return err
	}
	utils.Infof("🐳 分块 %d 容器已启动: %s", chunk.Index, shortID(id))

	if err := d.wait(ctx, chunk.Index, id); err != nil {
		return err
	}
	utils.Infof("✅ 分块 %d 爬取完成", chunk.Index)
	return nil
}

// launch 后台启动容器并返回容器ID
func (d *Dispatcher) launch(ctx context.Context, index int, args []string) (string, error) {
	res, err := d.runner.Launch(ctx, args)
	if err != nil {
		return "", &DispatchError{Phase: PhaseLaunch, Chunk: index, Err: err}
	}
	if err := checkOutcome(PhaseLaunch, index, res.ExitCode, res.Stderr); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", &DispatchError{Phase: PhaseLaunch, Chunk: index, Err: ErrEmptyContainerID}
	}
	return res.ID, nil
}

// wait 阻塞等待容器退出
func (d *Dispatcher) wait(ctx context.Context, index int, id string) error {
	res, err := d.runner.Wait(ctx, id)
	if err != nil {
		return &DispatchError{Phase: PhaseWait, Chunk: index, Err: err}
	}
	if err := checkOutcome(PhaseWait, index, res.ExitCode, res.Stderr); err != nil {
		return err
	}
	// docker wait 自身成功时, stdout 是容器的退出码
	if code, ok := res.ContainerExitCode(); ok && code != 0 {
		return &DispatchError{Phase: PhaseContainer, Chunk: index, ExitCode: code, Err: ErrNonZeroExit}
	}
	return nil
}

// checkOutcome 判定一次外部调用是否成功
func checkOutcome(phase DispatchPhase, index int, exitCode *int, stderr string) error {
	if exitCode == nil {
		return &DispatchError{Phase: phase, Chunk: index, Stderr: stderr, Err: ErrNoExitStatus}
	}
	if *exitCode != 0 {
		return &DispatchError{Phase: phase, Chunk: index, ExitCode: *exitCode, Stderr: stderr, Err: ErrNonZeroExit}
	}
	if stderr != "" {
		return &DispatchError{Phase: phase, Chunk: index, Stderr: stderr, Err: ErrStderr}
	}
	return nil
}

// shortID 截取容器ID前12位用于日志
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
