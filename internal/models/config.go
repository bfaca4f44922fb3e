package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScopeType 爬取范围
type ScopeType string

const (
	ScopePage   ScopeType = "page"   // 每个URL只抓取单页
	ScopeDomain ScopeType = "domain" // 递归抓取同域链接
)

// CrawlConfig 分块爬取配置
type CrawlConfig struct {
	Workers     int    `mapstructure:"workers" json:"workers"`           // 爬取器并发数 (默认:1)
	Recursive   bool   `mapstructure:"recursive" json:"recursive"`       // 是否递归跟随链接 (默认:false)
	URLFile     string `mapstructure:"url_file" json:"url_file"`         // 主URL列表文件
	ChunkSize   int    `mapstructure:"chunk_size" json:"chunk_size"`     // 每个分块读取的原始行数
	Chunk       int    `mapstructure:"chunk" json:"chunk"`               // 显式指定的起始分块(从1开始, 0表示自动)
	Force       bool   `mapstructure:"force" json:"force"`               // 强制重爬已完成的分块
	RunAsUID    string `mapstructure:"run_as_uid" json:"run_as_uid"`     // 容器内运行用户 (uid 或 uid:gid)
	PageTimeout int    `mapstructure:"page_timeout" json:"page_timeout"` // 单页请求超时(秒)
	Profile     string `mapstructure:"profile" json:"profile"`           // 浏览器配置档案文件名(位于profiles目录)
}

// Scope 根据递归开关返回爬取范围
func (c *CrawlConfig) Scope() ScopeType {
	if c.Recursive {
		return ScopeDomain
	}
	return ScopePage
}

// Timeout 单页超时
func (c *CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.PageTimeout) * time.Second
}

// ExplicitChunk 返回显式指定的分块序号, 未指定时返回nil
func (c *CrawlConfig) ExplicitChunk() *int {
	if c.Chunk <= 0 {
		return nil
	}
	chunk := c.Chunk
	return &chunk
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("并发数必须在1-64之间")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("分块大小必须大于0")
	}
	if c.Chunk < 0 {
		return fmt.Errorf("起始分块不能为负数")
	}
	if c.PageTimeout < 1 || c.PageTimeout > 3600 {
		return fmt.Errorf("单页超时必须在1-3600秒之间")
	}
	if c.URLFile == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	if c.RunAsUID != "" {
		if err := ValidateUID(c.RunAsUID); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUID 验证 uid 或 uid:gid 格式
func ValidateUID(s string) error {
	parts := strings.SplitN(s, ":", 2)
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return fmt.Errorf("无效的uid: %s (应为 uid 或 uid:gid)", s)
		}
	}
	return nil
}
