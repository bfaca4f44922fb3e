package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
)

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url_chunks", "1.txt")

	if err := WriteLines(path, []string{"https://a.com/1", "https://b.com/1"}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if string(content) != "https://a.com/1\nhttps://b.com/1" {
		t.Errorf("内容错误: %q", content)
	}

	n, err := CountLines(path)
	if err != nil {
		t.Fatalf("统计行数失败: %v", err)
	}
	if n != 2 {
		t.Errorf("行数错误: 期望 2, 得到 %d", n)
	}
}

func TestWriteLines_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")

	if err := WriteLines(path, nil); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if !FileExists(path) {
		t.Error("空列表也应生成文件")
	}
	if DirExists(path) {
		t.Error("普通文件不应被识别为目录")
	}
}

func TestReporter_SaveRunSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	reporter := NewReporter(dir)

	summary := &models.RunSummary{
		RunID:            "abc",
		ChunksDispatched: 2,
		Documents:        9,
	}
	path, err := reporter.SaveRunSummary(summary)
	if err != nil {
		t.Fatalf("保存报告失败: %v", err)
	}
	if path != filepath.Join(dir, "run_abc.json") {
		t.Errorf("报告路径错误: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取报告失败: %v", err)
	}
	var loaded models.RunSummary
	if err := loaded.FromJSON(data); err != nil {
		t.Fatalf("解析报告失败: %v", err)
	}
	if loaded.Documents != 9 || loaded.ChunksDispatched != 2 {
		t.Errorf("报告内容错误: %+v", loaded)
	}
}
