package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
)

// ValidateFlags 验证合并后的爬取参数
func ValidateFlags(crawl models.CrawlConfig) error {
	// 验证并发数
	if crawl.Workers < 1 || crawl.Workers > 64 {
		return fmt.Errorf("并发数必须在1-64之间,当前值: %d", crawl.Workers)
	}

	// 验证分块大小
	if crawl.ChunkSize < 1 {
		return fmt.Errorf("分块大小必须大于0,当前值: %d", crawl.ChunkSize)
	}

	// 验证起始分块
	if crawl.Chunk < 0 {
		return fmt.Errorf("起始分块不能为负数,当前值: %d", crawl.Chunk)
	}

	// 验证超时
	if crawl.PageTimeout < 1 || crawl.PageTimeout > 3600 {
		return fmt.Errorf("单页超时必须在1-3600秒之间,当前值: %d", crawl.PageTimeout)
	}

	// 验证容器用户
	if crawl.RunAsUID != "" {
		if err := models.ValidateUID(crawl.RunAsUID); err != nil {
			return err
		}
	}

	return crawl.Validate()
}

// ValidateURLFile 验证URL文件路径
func ValidateURLFile(path string) error {
	if path == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("无法访问URL文件 [%s]: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("URL文件路径是目录: %s", path)
	}
	return nil
}
