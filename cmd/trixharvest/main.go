package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/TrixHarvest/internal/config"
	"github.com/RecoveryAshes/TrixHarvest/internal/core"
	"github.com/RecoveryAshes/TrixHarvest/internal/crawlers"
	"github.com/RecoveryAshes/TrixHarvest/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 爬取参数
	workers     int
	recursive   bool
	urlFile     string
	chunkSize   int
	chunk       int
	force       bool
	runAsUID    string
	pageTimeout int
	profile     string
	image       string
	countOnly   bool
)

// 运行期状态, 由PersistentPreRunE初始化
var (
	appConfig *core.Config
	runID     string
)

var rootCmd = &cobra.Command{
	Use:   "trixharvest",
	Short: "分块驱动浏览器爬虫并收割页面文本",
	Long: `TrixHarvest - 基于 browsertrix-crawler 的大规模页面文本收割工具

工作流程:
  • 按固定行数切分主URL列表
  • 同一分块内按注册域名交错排序, 分散对单个站点的压力
  • 在容器中运行 browsertrix-crawler 爬取每个分块
  • 后台解析 pages.jsonl, 每个页面文本写成一个文件
  • 根据 url_chunks 目录自动断点续爬

示例:
  # 使用默认配置爬取 urls.txt
  trixharvest

  # 4个并发页面, 每块500行, 递归同域链接
  trixharvest -f seeds.txt -w 4 --chunk-size 500 -r

  # 从第12个分块重新开始
  trixharvest --chunk 12

  # 只统计已收割的文档数
  trixharvest --count

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		cfg, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := cfg.LogConfig()

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		runID = uuid.NewString()
		utils.WithRunID(runID)
		appConfig = cfg

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig.MergeCLIFlags(collectOverrides(cmd))

		if countOnly {
			return runCount(appConfig)
		}

		if err := ValidateFlags(appConfig.Crawl); err != nil {
			return err
		}
		if err := ValidateURLFile(appConfig.Crawl.URLFile); err != nil {
			return err
		}

		// 设置信号处理(Ctrl+C在分块之间停止)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		go func() {
			select {
			case sig := <-sigChan:
				utils.Warnf("收到中断信号: %v, 当前分块完成后停止...", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		runner := crawlers.NewDockerRunner(appConfig.Docker.Binary)
		orchestrator := core.NewOrchestrator(appConfig, runner, core.WithRunID(runID))

		if _, err := orchestrator.Run(ctx); err != nil {
			return err
		}

		utils.Info("✨ 爬取任务完成!")
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "统计已爬取结果中的文档数",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCount(appConfig)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "生成配置文件模板",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if len(args) == 1 {
			path = args[0]
		}

		created, err := config.EnsureConfigExists(path)
		if err != nil {
			return err
		}
		if created {
			utils.Infof("✅ 已生成配置文件: %s", path)
		} else {
			utils.Warnf("配置文件已存在: %s", path)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TrixHarvest %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Printf("默认爬取镜像: %s\n", crawlers.DefaultImage)
	},
}

// runCount 统计文档数并输出
func runCount(cfg *core.Config) error {
	failures := utils.NewFailureLog(cfg.Paths.FailureLog, runID)
	counter := core.NewCounter(cfg.Layout(), failures)

	result, err := counter.Count()
	if err != nil {
		return fmt.Errorf("统计文档失败: %w", err)
	}

	fmt.Println("==================================================")
	fmt.Println("📊 文档统计")
	fmt.Println("==================================================")
	for _, c := range result.Collections {
		fmt.Printf("  集合 %-8s %d\n", c.Name, c.Documents)
	}
	if result.Skipped > 0 {
		fmt.Printf("⚠️  无法读取的集合: %d (见 %s)\n", result.Skipped, failures.Path())
	}
	fmt.Printf("✅ 文档总数: %d\n", result.Total)
	fmt.Println("==================================================")
	return nil
}

// collectOverrides 收集命令行显式设置的参数
func collectOverrides(cmd *cobra.Command) core.CLIOverrides {
	var o core.CLIOverrides
	flags := cmd.Flags()
	if flags.Changed("workers") {
		o.Workers = &workers
	}
	if flags.Changed("recursive") {
		o.Recursive = &recursive
	}
	if flags.Changed("url-file") {
		o.URLFile = &urlFile
	}
	if flags.Changed("chunk-size") {
		o.ChunkSize = &chunkSize
	}
	if flags.Changed("chunk") {
		o.Chunk = &chunk
	}
	if flags.Changed("force") {
		o.Force = &force
	}
	if flags.Changed("uid") {
		o.RunAsUID = &runAsUID
	}
	if flags.Changed("timeout") {
		o.PageTimeout = &pageTimeout
	}
	if flags.Changed("profile") {
		o.Profile = &profile
	}
	if flags.Changed("image") {
		o.Image = &image
	}
	return o
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 爬取参数
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 1, "爬取器并发页面数 (1-64)")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "跟随同域链接递归爬取")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "urls.txt", "主URL列表文件")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "每个分块读取的行数")
	rootCmd.Flags().IntVar(&chunk, "chunk", 0, "从指定分块开始(从1开始, 0表示自动续爬)")
	rootCmd.Flags().BoolVar(&force, "force", false, "强制重爬已有结果的分块")
	rootCmd.Flags().StringVar(&runAsUID, "uid", "", "容器内运行用户 (uid 或 uid:gid)")
	rootCmd.Flags().IntVar(&pageTimeout, "timeout", 90, "单页加载超时(秒)")
	rootCmd.Flags().StringVar(&profile, "profile", "", "浏览器配置档案文件名(位于profiles目录)")
	rootCmd.Flags().StringVar(&image, "image", crawlers.DefaultImage, "爬取器容器镜像")
	rootCmd.Flags().BoolVar(&countOnly, "count", false, "只统计已爬取的文档数")

	// 添加子命令
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
