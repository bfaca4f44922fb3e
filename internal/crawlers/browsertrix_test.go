package crawlers

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
)

func testRunSpec(t *testing.T) RunSpec {
	root := t.TempDir()
	return RunSpec{
		Image: "webrecorder/browsertrix-crawler:1.0",
		Mounts: Mounts{
			CrawlsDir:     filepath.Join(root, "crawls"),
			ExtensionsDir: filepath.Join(root, "extensions"),
			ProfilesDir:   filepath.Join(root, "profiles"),
			URLsDir:       filepath.Join(root, "url_chunks"),
		},
		Collection: "7",
		Crawl: models.CrawlConfig{
			Workers:     4,
			ChunkSize:   100,
			PageTimeout: 60,
			URLFile:     "urls.txt",
		},
	}
}

func TestBuildRunArgs(t *testing.T) {
	spec := testRunSpec(t)

	args, err := BuildRunArgs(spec)
	if err != nil {
		t.Fatalf("构造参数失败: %v", err)
	}

	want := []string{
		"run", "-d",
		"-v", spec.Mounts.CrawlsDir + ":/crawls/",
		"-v", spec.Mounts.ExtensionsDir + ":/ext/",
		"-v", spec.Mounts.ProfilesDir + ":/profiles/",
		"-v", spec.Mounts.URLsDir + ":/urls/",
		"webrecorder/browsertrix-crawler:1.0", "crawl",
		"--urlFile", "/urls/7.txt",
		"--text",
		"--collection", "7",
		"--workers", "4",
		"--scopeType", "page",
		"--pageLoadTimeout", "60",
	}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("参数错误:\n期望: %v\n得到: %v", want, args)
	}
}

func TestBuildRunArgs_Options(t *testing.T) {
	spec := testRunSpec(t)
	spec.Image = ""
	spec.Crawl.Recursive = true
	spec.Crawl.RunAsUID = "1000:1000"
	spec.Crawl.Profile = "profile.tar.gz"

	args, err := BuildRunArgs(spec)
	if err != nil {
		t.Fatalf("构造参数失败: %v", err)
	}
	joined := strings.Join(args, " ")

	if !strings.HasPrefix(joined, "run -d --user 1000:1000 -v ") {
		t.Errorf("--user 应紧跟在 -d 之后: %s", joined)
	}
	if !strings.Contains(joined, " "+DefaultImage+" crawl ") {
		t.Errorf("未指定镜像时应使用默认镜像: %s", joined)
	}
	if !strings.Contains(joined, "--scopeType domain") {
		t.Errorf("递归时范围应为domain: %s", joined)
	}
	if !strings.HasSuffix(joined, "--profile /profiles/profile.tar.gz") {
		t.Errorf("缺少profile参数: %s", joined)
	}
}

func TestBuildRunArgs_AbsoluteMounts(t *testing.T) {
	spec := testRunSpec(t)
	spec.Mounts = Mounts{
		CrawlsDir:     "crawls",
		ExtensionsDir: "extensions",
		ProfilesDir:   "profiles",
		URLsDir:       "url_chunks",
	}

	args, err := BuildRunArgs(spec)
	if err != nil {
		t.Fatalf("构造参数失败: %v", err)
	}
	for i, arg := range args {
		if arg != "-v" {
			continue
		}
		host := strings.SplitN(args[i+1], ":", 2)[0]
		if !filepath.IsAbs(host) {
			t.Errorf("挂载目录应为绝对路径: %s", args[i+1])
		}
	}
}
