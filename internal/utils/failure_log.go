package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
)

// FailureLog 只追加的失败日志
// 多个收割任务并发写入, 每条记录一次Write调用, 文件以 O_APPEND|O_CREATE 打开
type FailureLog struct {
	path  string
	runID string
	mu    sync.Mutex
	count atomic.Int64
	now   func() time.Time
}

// NewFailureLog 创建失败日志
func NewFailureLog(path string, runID string) *FailureLog {
	return &FailureLog{
		path:  path,
		runID: runID,
		now:   time.Now,
	}
}

// Path 日志文件路径
func (fl *FailureLog) Path() string {
	return fl.path
}

// Count 本进程写入的条目数
func (fl *FailureLog) Count() int {
	return int(fl.count.Load())
}

// Record 追加一条失败记录, 同时输出警告日志
// 写入失败时只记录错误日志, 不影响调用方流程
func (fl *FailureLog) Record(chunk, line int, kind models.FailureKind, format string, args ...interface{}) {
	entry := models.FailureLogEntry{
		Time:    fl.now(),
		RunID:   fl.runID,
		Chunk:   chunk,
		Line:    line,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}

	Logger.Warn().
		Int("chunk", chunk).
		Int("line", line).
		Str("kind", string(kind)).
		Msg(entry.Message)

	if err := fl.Append(entry); err != nil {
		Errorf("写入失败日志失败 [%s]: %v", fl.path, err)
	}
}

// Append 追加一条记录
func (fl *FailureLog) Append(entry models.FailureLogEntry) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if dir := filepath.Dir(fl.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(fl.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write([]byte(entry.String() + "\n")); err != nil {
		return err
	}
	fl.count.Add(1)
	return nil
}
