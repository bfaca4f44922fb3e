package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const crawlerImage = "webrecorder/browsertrix-crawler"

func main() {
	fmt.Println("==============================================")
	fmt.Println("  TrixHarvest 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查docker
	if checkCommand("docker", "version", "--format", "{{.Server.Version}}") {
		dockerVersion := getCommandOutput("docker", "version", "--format", "{{.Server.Version}}")
		fmt.Printf("✅ Docker已安装: %s\n", strings.TrimSpace(dockerVersion))
	} else {
		fmt.Println("❌ Docker不可用 - 请安装Docker并确认当前用户可访问守护进程")
		allOK = false
	}

	// 检查爬取镜像
	// 首次 docker run 拉取镜像时会向stderr输出进度, 会被视为派发失败, 因此需要预先拉取
	image := crawlerImage
	if len(os.Args) > 1 {
		image = os.Args[1]
	}
	if checkCommand("docker", "image", "inspect", image) {
		fmt.Printf("✅ 镜像已存在: %s\n", image)
	} else {
		fmt.Printf("⚠️  镜像不存在: %s, 正在拉取...\n", image)
		cmd := exec.Command("docker", "pull", image)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			fmt.Printf("❌ 拉取镜像失败: %v\n", err)
			allOK = false
		} else {
			fmt.Println("✅ 镜像拉取完成")
		}
	}

	// 检查工作目录
	fmt.Println()
	fmt.Println("检查工作目录...")
	workDirs := []string{
		"crawls",
		"url_chunks",
		"extensions",
		"profiles",
		"dataset",
		"reports",
	}

	for _, dir := range workDirs {
		if err := checkWritable(dir); err == nil {
			fmt.Printf("✅ %s/\n", dir)
		} else {
			fmt.Printf("❌ %s/ 不可写: %v\n", dir, err)
			allOK = false
		}
	}

	// 检查URL文件
	if _, err := os.Stat("urls.txt"); err == nil {
		fmt.Println("✅ urls.txt 存在")
	} else {
		fmt.Println("⚠️  urls.txt 不存在 - 运行时需通过 -f 指定URL文件")
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'trixharvest init-config' 生成配置文件")
		fmt.Println("  2. 运行 'trixharvest -f urls.txt' 开始爬取")
		os.Exit(0)
	} else {
		fmt.Println("❌ 环境验证失败,请解决上述问题。")
		os.Exit(1)
	}
}

// checkCommand 检查命令是否可用
func checkCommand(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	err := cmd.Run()
	return err == nil
}

// getCommandOutput 获取命令输出
func getCommandOutput(name string, args ...string) string {
	cmd := exec.Command(name, args...)
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(output)
}

// checkWritable 创建目录并写入探测文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, nil, 0644); err != nil {
		return err
	}
	return os.Remove(testFile)
}
