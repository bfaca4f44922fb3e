package models

import (
	"encoding/json"
	"time"
)

// RunSummary 一次运行的汇总报告
type RunSummary struct {
	// 运行信息
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 分块进度
	ResumePoint int `json:"resume_point"` // 启动时跳过的分块数
	FirstChunk  int `json:"first_chunk"`
	LastChunk   int `json:"last_chunk"`

	// 统计信息
	URLsAttempted    int `json:"urls_attempted"`    // 累计提交爬取的URL数
	ChunksDispatched int `json:"chunks_dispatched"` // 实际派发的分块数
	ChunksSkipped    int `json:"chunks_skipped"`    // 已完成而跳过的分块数
	Documents        int `json:"documents"`         // 写出的文档数
	Failures         int `json:"failures"`          // 可恢复失败数

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *RunSummary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunSummary) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
