package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
)

func TestCounter_Count(t *testing.T) {
	cfg := newTestConfig(t)
	layout := cfg.Layout()
	failures := utils.NewFailureLog(cfg.Paths.FailureLog, "run-count")

	writePages(t, layout, 1,
		pageRecord("https://a.example/", "a"),
		pageRecord("https://b.example/", "b"),
		`{"url":"https://c.example/","status":500}`,
	)
	writePages(t, layout, 2, pageRecord("https://d.example/", "d"))
	writePages(t, layout, 10,
		pageRecord("https://e.example/", "e"),
		pageRecord("https://f.example/", "f"),
		pageRecord("https://g.example/", "g"),
	)

	// 没有结果文件的集合
	if err := os.MkdirAll(layout.CollectionDir(3), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	// 结果路径是目录, 无法读取
	if err := os.MkdirAll(layout.ResultPath(4), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}

	result, err := NewCounter(layout, failures).Count()
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}

	if result.Total != 6 {
		t.Errorf("文档总数错误: 期望 6, 得到 %d", result.Total)
	}
	if result.Skipped != 1 {
		t.Errorf("跳过数错误: 期望 1, 得到 %d", result.Skipped)
	}

	want := []CollectionCount{{"1", 2}, {"2", 1}, {"10", 3}}
	if len(result.Collections) != len(want) {
		t.Fatalf("集合数错误: %+v", result.Collections)
	}
	for i, c := range want {
		if result.Collections[i] != c {
			t.Errorf("集合 %d 错误: 期望 %+v, 得到 %+v", i, c, result.Collections[i])
		}
	}

	lines := readFailureLines(t, cfg.Paths.FailureLog)
	if len(lines) != 1 || !strings.Contains(lines[0], "chunk=4 kind=count_unreadable") {
		t.Errorf("失败记录错误: %v", lines)
	}
}

func TestCounter_MissingCollections(t *testing.T) {
	cfg := newTestConfig(t)

	result, err := NewCounter(cfg.Layout(), utils.NewFailureLog(cfg.Paths.FailureLog, "")).Count()
	if err != nil {
		t.Fatalf("集合目录不存在时不应返回错误: %v", err)
	}
	if result.Total != 0 || len(result.Collections) != 0 {
		t.Errorf("期望空结果, 得到 %+v", result)
	}
}

func TestCounter_IgnoresFilesInCollectionsDir(t *testing.T) {
	cfg := newTestConfig(t)
	layout := cfg.Layout()
	if err := os.MkdirAll(layout.CollectionsDir(), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(filepath.Join(layout.CollectionsDir(), "README"), []byte(`"text":`), 0644); err != nil {
		t.Fatalf("写入文件失败: %v", err)
	}

	result, err := NewCounter(layout, utils.NewFailureLog(cfg.Paths.FailureLog, "")).Count()
	if err != nil || result.Total != 0 {
		t.Errorf("集合目录下的普通文件应忽略: %+v, %v", result, err)
	}
}

func TestLessCollection(t *testing.T) {
	names := []string{"10", "b", "2", "a", "1"}
	want := []string{"1", "2", "10", "a", "b"}

	got := append([]string(nil), names...)
	for i := 1; i < len(got); i++ {
		for j := i; j > 0 && lessCollection(got[j], got[j-1]); j-- {
			got[j], got[j-1] = got[j-1], got[j]
		}
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("期望 %v, 得到 %v", want, got)
	}
}
