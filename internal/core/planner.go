package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
)

// NextResumeIndex 计算启动时需要跳过的分块数
// 显式指定分块(从1开始)时跳过 explicit-1 个;
// 否则扫描分块目录, 取文件名为整数的最大序号 highest, 跳过 highest-1 个.
// 最大序号对应的分块可能中途被打断, 因此不计入跳过数.
// 目录不存在、为空或没有整数文件名时返回0
func NextResumeIndex(explicit *int, chunkDir string) (int, error) {
	if explicit != nil {
		return max(*explicit-1, 0), nil
	}

	highest, err := HighestChunkIndex(chunkDir)
	if err != nil {
		return 0, err
	}
	return max(highest-1, 0), nil
}

// HighestChunkIndex 分块目录中最大的整数文件名, 没有时返回0
func HighestChunkIndex(chunkDir string) (int, error) {
	entries, err := os.ReadDir(chunkDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("读取分块目录失败 [%s]: %w", chunkDir, err)
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		index, err := strconv.Atoi(stem)
		if err != nil || index < 0 {
			continue
		}
		if index > highest {
			highest = index
		}
	}
	return highest, nil
}

// ChunkReader 按固定行数从主URL流中切分分块
// 每次Take读取 size 行原始文本(不做过滤), 分块序号每次Take递增1
type ChunkReader struct {
	scanner *bufio.Scanner
	size    int
	next    int
}

// NewChunkReader 创建分块读取器, 第一个分块序号为1
func NewChunkReader(r io.Reader, size int) *ChunkReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), utils.MaxLineSize)
	if size < 1 {
		size = 1
	}
	return &ChunkReader{
		scanner: scanner,
		size:    size,
		next:    1,
	}
}

// Skip 跳过已处理的分块, 返回实际跳过的行数
// 跳过后下一个分块序号为 chunks+1
func (cr *ChunkReader) Skip(chunks int) (int, error) {
	skipped := 0
	for i := 0; i < chunks*cr.size; i++ {
		if !cr.scanner.Scan() {
			break
		}
		skipped++
	}
	cr.next += chunks
	if err := cr.scanner.Err(); err != nil {
		return skipped, fmt.Errorf("跳过已处理分块失败: %w", err)
	}
	return skipped, nil
}

// NextIndex 下一次Take将产生的分块序号
func (cr *ChunkReader) NextIndex() int {
	return cr.next
}

// Take 读取下一个分块
// 到达输入末尾且没有缓冲行时 ok 为false
func (cr *ChunkReader) Take() (chunk *models.Chunk, ok bool, err error) {
	lines, ok, err := TakeChunk(cr.scanner, cr.size)
	if err != nil || !ok {
		return nil, false, err
	}
	chunk = &models.Chunk{Index: cr.next, Lines: lines}
	cr.next++
	return chunk, true, nil
}

// TakeChunk 从scanner读取最多 size 行
// 末尾不足 size 行时返回部分分块; 没有任何行时 ok 为false
func TakeChunk(scanner *bufio.Scanner, size int) ([]string, bool, error) {
	lines := make([]string, 0, size)
	for len(lines) < size && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("读取URL文件失败: %w", err)
	}
	if len(lines) == 0 {
		return nil, false, nil
	}
	return lines, true, nil
}
