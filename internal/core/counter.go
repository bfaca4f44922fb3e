package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
)

// textMarker 每条带文本字段的记录出现一次
var textMarker = []byte(`"text":`)

// CollectionCount 单个集合的文档数
type CollectionCount struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// CountResult 统计结果
type CountResult struct {
	Total       int               `json:"total"`
	Collections []CollectionCount `json:"collections"`
	Skipped     int               `json:"skipped"` // 无法读取的集合数
}

// Counter 文档计数器, 只读扫描已有的爬取结果
type Counter struct {
	layout   models.ChunkLayout
	failures *utils.FailureLog
}

// NewCounter 创建文档计数器
func NewCounter(layout models.ChunkLayout, failures *utils.FailureLog) *Counter {
	return &Counter{
		layout:   layout,
		failures: failures,
	}
}

// Count 统计所有集合结果文件中的文档数
// 集合目录不存在时返回0; 无法读取的结果文件记录失败后跳过
func (c *Counter) Count() (CountResult, error) {
	var result CountResult

	dir := c.layout.CollectionsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			utils.Warnf("集合目录不存在: %s", dir)
			return result, nil
		}
		return result, fmt.Errorf("读取集合目录失败 [%s]: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := models.ResultPathIn(filepath.Join(dir, name))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		n, err := countMarkers(path)
		if err != nil {
			chunk, _ := strconv.Atoi(name)
			c.failures.Record(chunk, models.NoLine, models.FailureCountUnreadable, "无法读取结果文件 [%s]: %v", path, err)
			result.Skipped++
			continue
		}

		utils.Debugf("集合 %s: %d 个文档", name, n)
		result.Collections = append(result.Collections, CollectionCount{Name: name, Documents: n})
		result.Total += n
	}

	sort.SliceStable(result.Collections, func(i, j int) bool {
		return lessCollection(result.Collections[i].Name, result.Collections[j].Name)
	})
	return result, nil
}

// countMarkers 统计文件中文本字段标记的出现次数
func countMarkers(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	count := 0
	for {
		line, err := reader.ReadBytes('\n')
		count += bytes.Count(line, textMarker)
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
	}
}

// lessCollection 数字名称按数值排序, 其余按字典序排在数字之后
func lessCollection(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}
