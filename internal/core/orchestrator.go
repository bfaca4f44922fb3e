package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/RecoveryAshes/TrixHarvest/internal/crawlers"
	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// monitorInterval 资源采样间隔
const monitorInterval = 5 * time.Second

// Orchestrator 运行编排器
// 单一控制协程依次完成 切分 → 交错排序 → 派发; 收割任务在errgroup中并发执行
type Orchestrator struct {
	config     *Config
	runID      string
	layout     models.ChunkLayout
	dispatcher *Dispatcher
	harvester  ChunkHarvester
	failures   *utils.FailureLog
	reporter   *utils.Reporter
	monitor    *crawlers.ResourceMonitor
	extract    DomainFunc
	progress   io.Writer
}

// ChunkHarvester 分块收割接口, 默认实现为 Harvester
type ChunkHarvester interface {
	Harvest(chunkIndex int) (HarvestStats, error)
}

// Option 编排器选项
type Option func(*Orchestrator)

// WithRunID 指定运行ID, 默认随机生成
func WithRunID(runID string) Option {
	return func(o *Orchestrator) {
		o.runID = runID
	}
}

// WithProgressWriter 指定进度条输出, 默认stderr
func WithProgressWriter(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.progress = w
	}
}

// WithResourceMonitor 指定资源监控器
func WithResourceMonitor(m *crawlers.ResourceMonitor) Option {
	return func(o *Orchestrator) {
		o.monitor = m
	}
}

// WithDomainFunc 指定域名提取函数
func WithDomainFunc(fn DomainFunc) Option {
	return func(o *Orchestrator) {
		o.extract = fn
	}
}

// WithHarvester 指定分块收割实现
func WithHarvester(h ChunkHarvester) Option {
	return func(o *Orchestrator) {
		o.harvester = h
	}
}

// NewOrchestrator 创建运行编排器
func NewOrchestrator(cfg *Config, runner crawlers.ProcessRunner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config:   cfg,
		runID:    uuid.NewString(),
		layout:   cfg.Layout(),
		reporter: utils.NewReporter(cfg.Paths.ReportsDir),
		extract:  RegistrableDomain,
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.monitor == nil {
		o.monitor = crawlers.NewResourceMonitor(cfg.ResourceMonitorConfig())
	}

	o.dispatcher = NewDispatcher(cfg, runner)
	o.failures = utils.NewFailureLog(cfg.Paths.FailureLog, o.runID)
	if o.harvester == nil {
		o.harvester = NewHarvester(o.layout, o.failures)
	}
	return o
}

// RunID 本次运行ID
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Failures 失败日志
func (o *Orchestrator) Failures() *utils.FailureLog {
	return o.failures
}

// Run 执行一次完整运行
// 派发失败时停止派发, 等待已启动的收割任务结束后返回该错误;
// ctx取消只在分块之间生效, 已启动的容器不会被中断
func (o *Orchestrator) Run(ctx context.Context) (*models.RunSummary, error) {
	crawl := o.config.Crawl
	summary := &models.RunSummary{
		RunID:     o.runID,
		StartTime: time.Now(),
		Config:    crawl,
	}

	utils.Infof("🚀 开始运行: %s", o.runID)
	utils.Infof("URL文件: %s, 分块大小: %d, 并发页面: %d, 范围: %s",
		crawl.URLFile, crawl.ChunkSize, crawl.Workers, crawl.Scope())

	explicit := crawl.ExplicitChunk()
	skip, err := NextResumeIndex(explicit, o.config.Paths.URLsDir)
	if err != nil {
		return nil, err
	}
	summary.ResumePoint = skip

	file, err := os.Open(crawl.URLFile)
	if err != nil {
		return nil, fmt.Errorf("打开URL文件失败: %w", err)
	}
	defer file.Close()

	reader := NewChunkReader(file, crawl.ChunkSize)
	if skip > 0 {
		skipped, err := reader.Skip(skip)
		if err != nil {
			return nil, err
		}
		utils.Infof("⏩ 从分块 %d 继续 (跳过 %d 个分块, %d 行)", reader.NextIndex(), skip, skipped)
	}

	bar := utils.NewProgressBarTo(o.progress, o.estimateChunks(skip), "爬取分块")

	o.monitor.StartMonitoring(monitorInterval)
	defer o.monitor.StopMonitoring()

	var (
		group     errgroup.Group
		mu        sync.Mutex
		runErr    error
		harvested []HarvestStats
	)
	collect := func(stats HarvestStats) {
		mu.Lock()
		harvested = append(harvested, stats)
		mu.Unlock()
	}

	for {
		if ctx.Err() != nil {
			utils.Warn("⚠️  收到中断信号, 停止派发新的分块")
			runErr = fmt.Errorf("运行被中断: %w", ctx.Err())
			break
		}

		chunk, ok, err := reader.Take()
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			break
		}

		chunk.URLs = Schedule(chunk.Lines, o.extract)
		if summary.FirstChunk == 0 {
			summary.FirstChunk = chunk.Index
		}
		summary.LastChunk = chunk.Index

		forced := crawl.Force || (explicit != nil && *explicit == chunk.Index)
		if !forced && utils.FileExists(o.layout.ResultPath(chunk.Index)) {
			summary.ChunksSkipped++
			if utils.FileExists(o.layout.HarvestMarkerPath(chunk.Index)) {
				utils.Infof("⏭️  分块 %d 已完成, 跳过", chunk.Index)
			} else {
				utils.Infof("⏭️  分块 %d 已爬取, 仅收割结果", chunk.Index)
				o.spawnHarvest(&group, chunk.Index, collect)
			}
			bar.Add(1)
			continue
		}

		summary.URLsAttempted += len(chunk.URLs)
		o.reportProgress(chunk, summary.URLsAttempted)

		if len(chunk.URLs) == 0 {
			// URL列表文件照常写出, 保证断点续爬的序号连续
			if _, err := o.dispatcher.WriteURLList(chunk); err != nil {
				runErr = err
				break
			}
			utils.Warnf("分块 %d 过滤后没有可爬取的URL, 跳过派发", chunk.Index)
			bar.Add(1)
			continue
		}

		if err := o.dispatcher.Dispatch(context.WithoutCancel(ctx), chunk); err != nil {
			runErr = err
			break
		}
		summary.ChunksDispatched++
		o.spawnHarvest(&group, chunk.Index, collect)
		bar.Add(1)
	}

	if runErr != nil {
		utils.Errorf("❌ %v", runErr)
		utils.Info("等待已启动的收割任务结束...")
	}
	joinErr := group.Wait()
	bar.Finish()

	for _, stats := range harvested {
		summary.Documents += stats.Documents
	}
	summary.Failures = o.failures.Count()
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime).Seconds()

	if _, err := o.reporter.SaveRunSummary(summary); err != nil {
		utils.Warnf("保存运行报告失败: %v", err)
	}
	o.printSummary(summary)

	if runErr != nil {
		return summary, runErr
	}
	if joinErr != nil {
		return summary, fmt.Errorf("收割任务失败: %w", joinErr)
	}
	return summary, nil
}

// spawnHarvest 在任务组中启动收割任务, panic 转为任务错误
func (o *Orchestrator) spawnHarvest(group *errgroup.Group, index int, collect func(HarvestStats)) {
	group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("分块 %d 收割异常: %v", index, r)
			}
		}()

		stats, harvestErr := o.harvester.Harvest(index)
		if harvestErr != nil {
			return fmt.Errorf("分块 %d 收割失败: %w", index, harvestErr)
		}
		collect(stats)
		return nil
	})
}

// reportProgress 输出分块进度和宿主机资源状态, 空分块同样计入
func (o *Orchestrator) reportProgress(chunk *models.Chunk, attempted int) {
	snapshot := o.monitor.Snapshot()
	utils.Logger.Info().
		Int("chunk", chunk.Index).
		Int("urls", len(chunk.URLs)).
		Int("attempted", attempted).
		Uint64("available_mb", snapshot.AvailableMB()).
		Float64("cpu_percent", snapshot.CPUPercent).
		Msgf("🕷️  分块 %d: %d 个URL", chunk.Index, len(chunk.URLs))

	if ok, reason := o.monitor.CheckResourceAvailability(); !ok {
		utils.Warnf("⚠️  %s, 浏览器容器可能运行缓慢", reason)
	}
}

// estimateChunks 估算剩余分块数, 无法统计或没有剩余时返回-1
func (o *Orchestrator) estimateChunks(skip int) int {
	lines, err := utils.CountLines(o.config.Crawl.URLFile)
	if err != nil {
		return -1
	}
	size := o.config.Crawl.ChunkSize
	total := (lines+size-1)/size - skip
	if total <= 0 {
		return -1
	}
	return total
}

// printSummary 打印运行摘要
func (o *Orchestrator) printSummary(summary *models.RunSummary) {
	utils.Info("==================================================")
	utils.Info("📊 运行摘要")
	utils.Info("==================================================")
	utils.Infof("运行ID: %s", summary.RunID)
	if summary.FirstChunk > 0 {
		utils.Infof("分块范围: %d - %d", summary.FirstChunk, summary.LastChunk)
	}
	utils.Infof("🕷️  已派发分块: %d", summary.ChunksDispatched)
	utils.Infof("⏭️  已跳过分块: %d", summary.ChunksSkipped)
	utils.Infof("🔗 提交URL数: %d", summary.URLsAttempted)
	utils.Infof("📄 文档数: %d", summary.Documents)
	if summary.Failures > 0 {
		utils.Warnf("❌ 失败条目: %d (见 %s)", summary.Failures, o.failures.Path())
	}
	utils.Infof("⏱️  总耗时: %.2f秒", summary.Duration)
	utils.Info("==================================================")
}
