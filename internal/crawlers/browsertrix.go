package crawlers

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/RecoveryAshes/TrixHarvest/internal/models"
)

// 容器内挂载点
const (
	CrawlsMount     = "/crawls/"
	ExtensionsMount = "/ext/"
	ProfilesMount   = "/profiles/"
	URLsMount       = "/urls/"
)

// DefaultImage 默认爬取镜像
const DefaultImage = "webrecorder/browsertrix-crawler"

// Mounts 宿主机目录
type Mounts struct {
	CrawlsDir     string
	ExtensionsDir string
	ProfilesDir   string
	URLsDir       string
}

// RunSpec 单个分块的容器启动参数
type RunSpec struct {
	Image      string
	Mounts     Mounts
	Collection string // 集合名, 等于分块序号
	Crawl      models.CrawlConfig
}

// BuildRunArgs 构造 docker run 参数(不含docker本身)
// 形如: run -d [--user uid] -v crawls:/crawls/ ... image crawl --urlFile /urls/N.txt --text --collection N ...
func BuildRunArgs(spec RunSpec) ([]string, error) {
	image := spec.Image
	if image == "" {
		image = DefaultImage
	}

	args := []string{"run", "-d"}
	if spec.Crawl.RunAsUID != "" {
		args = append(args, "--user", spec.Crawl.RunAsUID)
	}

	volumes := []struct {
		host  string
		mount string
	}{
		{spec.Mounts.CrawlsDir, CrawlsMount},
		{spec.Mounts.ExtensionsDir, ExtensionsMount},
		{spec.Mounts.ProfilesDir, ProfilesMount},
		{spec.Mounts.URLsDir, URLsMount},
	}
	for _, v := range volumes {
		// docker -v 要求绝对路径, 否则会被当作命名卷
		abs, err := filepath.Abs(v.host)
		if err != nil {
			return nil, fmt.Errorf("解析挂载目录失败 [%s]: %w", v.host, err)
		}
		args = append(args, "-v", abs+":"+v.mount)
	}

	args = append(args, image, "crawl",
		"--urlFile", URLsMount+spec.Collection+models.URLListExt,
		"--text",
		"--collection", spec.Collection,
		"--workers", strconv.Itoa(spec.Crawl.Workers),
		"--scopeType", string(spec.Crawl.Scope()),
		"--pageLoadTimeout", strconv.Itoa(int(spec.Crawl.Timeout().Seconds())),
	)
	if spec.Crawl.Profile != "" {
		args = append(args, "--profile", ProfilesMount+spec.Crawl.Profile)
	}
	return args, nil
}
