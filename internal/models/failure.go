package models

import (
	"fmt"
	"strings"
	"time"
)

// FailureKind 可恢复失败的类别
type FailureKind string

const (
	FailureNoResults       FailureKind = "no_results"       // 分块没有结果文件
	FailureDecode          FailureKind = "decode"           // 单条记录解析失败
	FailureWrite           FailureKind = "write"            // 文档写入失败
	FailureCountUnreadable FailureKind = "count_unreadable" // 统计时结果文件不可读
)

// NoLine 表示失败与具体行无关
const NoLine = -1

// FailureLogEntry 失败日志条目, 只追加不删除
type FailureLogEntry struct {
	Time    time.Time
	RunID   string
	Chunk   int
	Line    int // 从1开始的行号, 无关时为NoLine
	Kind    FailureKind
	Message string
}

// String 渲染为一行可读文本(不含换行)
// 格式: 2006-01-02T15:04:05Z run=<id> chunk=3 line=7 kind=decode msg=...
func (e FailureLogEntry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.UTC().Format(time.RFC3339))
	if e.RunID != "" {
		fmt.Fprintf(&b, " run=%s", e.RunID)
	}
	fmt.Fprintf(&b, " chunk=%d", e.Chunk)
	if e.Line != NoLine {
		fmt.Fprintf(&b, " line=%d", e.Line)
	}
	fmt.Fprintf(&b, " kind=%s", e.Kind)
	// 保证一条记录只占一行
	msg := strings.NewReplacer("\r", " ", "\n", " ").Replace(e.Message)
	fmt.Fprintf(&b, " msg=%s", msg)
	return b.String()
}
