package crawlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 宿主机资源监控器
// 职责: 周期采样内存和CPU, 在派发分块前提示资源是否足以运行浏览器容器
type ResourceMonitor struct {
	// 配置参数
	config ResourceMonitorConfig

	// 采样函数(测试时可替换)
	sample func() (HostSnapshot, error)

	// 最近一次采样
	last HostSnapshot

	// 保护last的读写锁
	mu sync.RWMutex

	// 监控控制
	cancelFunc context.CancelFunc
	done       chan struct{}
	isRunning  bool
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	MinAvailableMemory uint64 // 可用内存下限(字节), 低于该值时告警
	CPULoadThreshold   int    // CPU负载阈值(%), >=200 表示不检查
}

// HostSnapshot 一次资源采样
type HostSnapshot struct {
	TotalMemory     uint64    // 系统总内存(字节)
	AvailableMemory uint64    // 可用内存(字节)
	CPUPercent      float64   // 所有核心平均使用率
	SampledAt       time.Time // 采样时间
}

// AvailableMB 可用内存(MB)
func (s HostSnapshot) AvailableMB() uint64 {
	return s.AvailableMemory / (1024 * 1024)
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	return &ResourceMonitor{
		config: config,
		sample: sampleHost,
	}
}

// sampleHost 使用gopsutil采样真实系统资源
func sampleHost() (HostSnapshot, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	snapshot := HostSnapshot{
		TotalMemory:     vmStat.Total,
		AvailableMemory: vmStat.Available,
		SampledAt:       time.Now(),
	}

	// 100毫秒采样间隔, perCPU=false 返回平均值
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
	} else if len(percentages) > 0 {
		snapshot.CPUPercent = percentages[0]
	}

	return snapshot, nil
}

// StartMonitoring 启动后台采样
func (rm *ResourceMonitor) StartMonitoring(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	// 幂等
	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancelFunc = cancel
	rm.done = make(chan struct{})
	rm.isRunning = true

	go rm.monitoringLoop(ctx, interval, rm.done)
}

// monitoringLoop 后台监控循环
func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rm.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.refresh()
		}
	}
}

// refresh 采样并更新缓存
func (rm *ResourceMonitor) refresh() (HostSnapshot, error) {
	snapshot, err := rm.sample()
	if err != nil {
		log.Warn().Err(err).Msg("资源采样失败")
		return HostSnapshot{}, err
	}
	rm.mu.Lock()
	rm.last = snapshot
	rm.mu.Unlock()
	return snapshot, nil
}

// StopMonitoring 停止资源监控
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	if !rm.isRunning {
		rm.mu.Unlock()
		return
	}
	rm.cancelFunc()
	done := rm.done
	rm.isRunning = false
	rm.cancelFunc = nil
	rm.mu.Unlock()

	<-done
}

// Snapshot 返回最近一次采样, 尚未采样时立即采样一次
func (rm *ResourceMonitor) Snapshot() HostSnapshot {
	rm.mu.RLock()
	last := rm.last
	rm.mu.RUnlock()

	if last.SampledAt.IsZero() {
		if snapshot, err := rm.refresh(); err == nil {
			return snapshot
		}
	}
	return last
}

// CheckResourceAvailability 检查当前资源是否适合启动新的爬取容器
// 返回ok(是否充足)和reason(不足时的原因); 仅用于告警, 不阻止派发
func (rm *ResourceMonitor) CheckResourceAvailability() (ok bool, reason string) {
	snapshot := rm.Snapshot()
	if snapshot.SampledAt.IsZero() {
		return true, ""
	}

	if rm.config.MinAvailableMemory > 0 && snapshot.AvailableMemory < rm.config.MinAvailableMemory {
		return false, fmt.Sprintf("可用内存不足(当前%dMB)", snapshot.AvailableMB())
	}

	if rm.config.CPULoadThreshold > 0 && rm.config.CPULoadThreshold < 200 &&
		snapshot.CPUPercent > float64(rm.config.CPULoadThreshold) {
		return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", snapshot.CPUPercent)
	}

	return true, ""
}
