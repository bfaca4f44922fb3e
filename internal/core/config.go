package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/TrixHarvest/internal/config"
	"github.com/RecoveryAshes/TrixHarvest/internal/crawlers"
	"github.com/RecoveryAshes/TrixHarvest/internal/models"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 例如 TRIXHARVEST_CRAWL_WORKERS
const EnvPrefix = "TRIXHARVEST"

// Config 应用程序配置
type Config struct {
	Crawl    models.CrawlConfig `mapstructure:"crawl"`
	Docker   DockerConfig       `mapstructure:"docker"`
	Paths    PathsConfig        `mapstructure:"paths"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Resource ResourceConfig     `mapstructure:"resource"`
}

// DockerConfig 容器运行配置
type DockerConfig struct {
	Binary string `mapstructure:"binary"`
	Image  string `mapstructure:"image"`
}

// PathsConfig 磁盘布局配置
type PathsConfig struct {
	CrawlsDir     string `mapstructure:"crawls_dir"`
	URLsDir       string `mapstructure:"urls_dir"`
	ExtensionsDir string `mapstructure:"extensions_dir"`
	ProfilesDir   string `mapstructure:"profiles_dir"`
	DatasetDir    string `mapstructure:"dataset_dir"`
	FailureLog    string `mapstructure:"failure_log"`
	ReportsDir    string `mapstructure:"reports_dir"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ResourceConfig 宿主机资源告警配置
type ResourceConfig struct {
	MinAvailableMemory int `mapstructure:"min_available_memory"` // MB
	CPULoadThreshold   int `mapstructure:"cpu_load_threshold"`   // %
}

// LoadConfig 加载配置文件
// 优先级: 命令行(由调用方合并) > 环境变量 > 配置文件 > 默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		// 使用指定的配置文件
		if err := config.ValidateFileSize(configPath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".trixharvest"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.workers", 1)
	v.SetDefault("crawl.recursive", false)
	v.SetDefault("crawl.url_file", "urls.txt")
	v.SetDefault("crawl.chunk_size", 1000)
	v.SetDefault("crawl.chunk", 0)
	v.SetDefault("crawl.force", false)
	v.SetDefault("crawl.run_as_uid", "")
	v.SetDefault("crawl.page_timeout", 90)
	v.SetDefault("crawl.profile", "")

	// 容器配置默认值
	v.SetDefault("docker.binary", "docker")
	v.SetDefault("docker.image", crawlers.DefaultImage)

	// 目录布局默认值
	v.SetDefault("paths.crawls_dir", "crawls")
	v.SetDefault("paths.urls_dir", "url_chunks")
	v.SetDefault("paths.extensions_dir", "extensions")
	v.SetDefault("paths.profiles_dir", "profiles")
	v.SetDefault("paths.dataset_dir", "dataset")
	v.SetDefault("paths.failure_log", "failures.log")
	v.SetDefault("paths.reports_dir", "reports")

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 资源告警默认值
	v.SetDefault("resource.min_available_memory", 1024)
	v.SetDefault("resource.cpu_load_threshold", 200)
}

// Layout 分块磁盘布局
func (c *Config) Layout() models.ChunkLayout {
	return models.ChunkLayout{
		CrawlsDir:  c.Paths.CrawlsDir,
		URLsDir:    c.Paths.URLsDir,
		DatasetDir: c.Paths.DatasetDir,
	}
}

// Mounts 容器挂载目录
func (c *Config) Mounts() crawlers.Mounts {
	return crawlers.Mounts{
		CrawlsDir:     c.Paths.CrawlsDir,
		ExtensionsDir: c.Paths.ExtensionsDir,
		ProfilesDir:   c.Paths.ProfilesDir,
		URLsDir:       c.Paths.URLsDir,
	}
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// ResourceMonitorConfig 转换为资源监控配置
func (c *Config) ResourceMonitorConfig() crawlers.ResourceMonitorConfig {
	return crawlers.ResourceMonitorConfig{
		MinAvailableMemory: uint64(c.Resource.MinAvailableMemory) * 1024 * 1024, // MB转字节
		CPULoadThreshold:   c.Resource.CPULoadThreshold,
	}
}

// CLIOverrides 命令行显式设置的参数, nil 表示未设置
type CLIOverrides struct {
	Workers     *int
	Recursive   *bool
	URLFile     *string
	ChunkSize   *int
	Chunk       *int
	Force       *bool
	RunAsUID    *string
	PageTimeout *int
	Profile     *string
	Image       *string
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Workers != nil {
		c.Crawl.Workers = *o.Workers
	}
	if o.Recursive != nil {
		c.Crawl.Recursive = *o.Recursive
	}
	if o.URLFile != nil {
		c.Crawl.URLFile = *o.URLFile
	}
	if o.ChunkSize != nil {
		c.Crawl.ChunkSize = *o.ChunkSize
	}
	if o.Chunk != nil {
		c.Crawl.Chunk = *o.Chunk
	}
	if o.Force != nil {
		c.Crawl.Force = *o.Force
	}
	if o.RunAsUID != nil {
		c.Crawl.RunAsUID = *o.RunAsUID
	}
	if o.PageTimeout != nil {
		c.Crawl.PageTimeout = *o.PageTimeout
	}
	if o.Profile != nil {
		c.Crawl.Profile = *o.Profile
	}
	if o.Image != nil {
		c.Docker.Image = *o.Image
	}
}
