package core

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"time"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
)

// HarvestStats 单个分块的收割统计
type HarvestStats struct {
	Chunk     int
	Records   int // 成功解析的记录数
	Documents int // 写出的文档数
	NoText    int // 没有文本的记录数
	Failures  int // 记录到失败日志的条目数
}

// Harvester 结果收割器
// 解析爬取器输出的 pages.jsonl, 每条带文本的记录写成一个文件;
// 所有失败都写入失败日志后继续, 不会中止运行
type Harvester struct {
	layout   models.ChunkLayout
	failures *utils.FailureLog
}

// NewHarvester 创建结果收割器
func NewHarvester(layout models.ChunkLayout, failures *utils.FailureLog) *Harvester {
	return &Harvester{
		layout:   layout,
		failures: failures,
	}
}

// Harvest 收割一个分块的爬取结果
// 结果文件首行为摘要; 其后每个非空行是一条记录.
// 文档文件名为记录在首行之后的位置(从0开始, 空行不占位置), 行号在失败日志中从1开始计数.
// 读完整个文件后写出完成标记, 续爬时据此判断分块是否已收割.
// 返回的error只用于无法完成任务的情况, 可恢复的失败只记录日志
func (h *Harvester) Harvest(chunkIndex int) (HarvestStats, error) {
	stats := HarvestStats{Chunk: chunkIndex}
	resultPath := h.layout.ResultPath(chunkIndex)

	file, err := os.Open(resultPath)
	if err != nil {
		h.failures.Record(chunkIndex, models.NoLine, models.FailureNoResults, "未找到爬取结果 [%s]: %v", resultPath, err)
		stats.Failures++
		return stats, nil
	}
	defer file.Close()

	utils.Debugf("开始收割分块 %d: %s", chunkIndex, resultPath)

	out := &docWriter{dir: h.layout.DatasetChunkDir(chunkIndex)}
	reader := bufio.NewReader(file)
	lineNo := 0
	position := 0
	complete := true
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
		}
		if readErr != nil && readErr != io.EOF {
			h.failures.Record(chunkIndex, lineNo, models.FailureDecode, "读取结果文件失败: %v", readErr)
			stats.Failures++
			complete = false
			break
		}

		line = bytes.TrimSpace(line)
		switch {
		case lineNo == 1 && len(line) > 0:
			h.checkHeader(chunkIndex, line)
		case lineNo > 1 && len(line) > 0:
			h.harvestLine(chunkIndex, lineNo, position, line, out, &stats)
			position++
		}

		if readErr == io.EOF {
			break
		}
	}

	// 读取中断的分块不写标记, 下次续爬时重新收割
	if complete {
		h.markHarvested(chunkIndex, &stats)
	}

	utils.Infof("📦 分块 %d 收割完成: 记录 %d, 文档 %d, 无文本 %d, 失败 %d",
		chunkIndex, stats.Records, stats.Documents, stats.NoText, stats.Failures)
	return stats, nil
}

// checkHeader 校验摘要行, 只告警不中断
func (h *Harvester) checkHeader(chunkIndex int, line []byte) {
	header, err := models.DecodePagesHeader(line)
	if err != nil {
		utils.Warnf("分块 %d 结果文件摘要无法解析: %v", chunkIndex, err)
		return
	}
	if !header.HasText {
		utils.Warnf("分块 %d 结果未包含页面文本 (format=%s), 爬取器可能缺少 --text 参数", chunkIndex, header.Format)
	}
}

// docWriter 按需创建输出目录
type docWriter struct {
	dir   string
	ready bool
}

func (w *docWriter) ensureDir() error {
	if w.ready {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	w.ready = true
	return nil
}

// harvestLine 处理一条记录
func (h *Harvester) harvestLine(chunkIndex, lineNo, position int, line []byte, out *docWriter, stats *HarvestStats) {
	record, err := models.DecodeCrawlRecord(line)
	if err != nil {
		h.failures.Record(chunkIndex, lineNo, models.FailureDecode, "解析记录失败: %v", err)
		stats.Failures++
		return
	}
	stats.Records++

	if !record.HasText() {
		stats.NoText++
		return
	}

	if err := out.ensureDir(); err != nil {
		h.failures.Record(chunkIndex, lineNo, models.FailureWrite, "创建输出目录失败 [%s]: %v", out.dir, err)
		stats.Failures++
		return
	}

	docPath := h.layout.DocumentPath(chunkIndex, position)
	if err := os.WriteFile(docPath, []byte(*record.Text), 0644); err != nil {
		h.failures.Record(chunkIndex, lineNo, models.FailureWrite, "写入文档失败 [%s]: %v", docPath, err)
		stats.Failures++
		return
	}
	stats.Documents++
}

// markHarvested 写出分块完成标记
func (h *Harvester) markHarvested(chunkIndex int, stats *HarvestStats) {
	marker := h.layout.HarvestMarkerPath(chunkIndex)
	if err := utils.WriteLines(marker, []string{time.Now().UTC().Format(time.RFC3339)}); err != nil {
		h.failures.Record(chunkIndex, models.NoLine, models.FailureWrite, "写入完成标记失败: %v", err)
		stats.Failures++
	}
}
