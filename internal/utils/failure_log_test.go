package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
)

func TestFailureLog_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "failures.log")
	fl := NewFailureLog(path, "run-1")
	fl.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	fl.Record(3, 7, models.FailureDecode, "解析记录失败: %s", "unexpected EOF")
	fl.Record(4, models.NoLine, models.FailureNoResults, "未找到爬取结果")

	if fl.Count() != 2 {
		t.Errorf("条目数错误: 期望 2, 得到 %d", fl.Count())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败日志失败: %v", err)
	}

	want := "2024-01-02T03:04:05Z run=run-1 chunk=3 line=7 kind=decode msg=解析记录失败: unexpected EOF\n" +
		"2024-01-02T03:04:05Z run=run-1 chunk=4 kind=no_results msg=未找到爬取结果\n"
	if string(content) != want {
		t.Errorf("失败日志内容错误:\n期望:\n%s\n得到:\n%s", want, content)
	}
}

func TestFailureLog_AppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")

	NewFailureLog(path, "run-a").Record(1, models.NoLine, models.FailureNoResults, "first")
	NewFailureLog(path, "run-b").Record(2, models.NoLine, models.FailureNoResults, "second")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败日志失败: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("应保留之前运行的记录, 得到 %d 行", len(lines))
	}
	if !strings.Contains(lines[0], "run=run-a") || !strings.Contains(lines[1], "run=run-b") {
		t.Errorf("记录顺序错误: %v", lines)
	}
}

func TestFailureLog_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")
	fl := NewFailureLog(path, "run-c")

	const writers = 8
	const perWriter = 50
	long := strings.Repeat("x", 4096)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(chunk int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				fl.Record(chunk, i+1, models.FailureDecode, "%s", long)
			}
		}(w + 1)
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败日志失败: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("行数错误: 期望 %d, 得到 %d", writers*perWriter, len(lines))
	}
	for i, line := range lines {
		if !strings.Contains(line, " kind=decode msg=") || !strings.HasSuffix(line, long) {
			t.Fatalf("第 %d 行不完整: %.80s...", i+1, line)
		}
	}
	if fl.Count() != writers*perWriter {
		t.Errorf("条目数错误: 期望 %d, 得到 %d", writers*perWriter, fl.Count())
	}
}

func TestFailureLog_MessageStaysOnOneLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")
	fl := NewFailureLog(path, "")

	fl.Record(1, 2, models.FailureWrite, "line one\nline two")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败日志失败: %v", err)
	}
	if strings.Count(string(content), "\n") != 1 {
		t.Errorf("一条记录应只占一行, 得到: %q", content)
	}
}
