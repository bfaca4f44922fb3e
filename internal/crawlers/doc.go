// Package crawlers 封装对外部爬取容器的调用
//
// # 概述
//
// 页面渲染与抓取由 browsertrix-crawler 容器完成, 本包只负责启动和等待。
// 调用被建模为两阶段协议:
//
//  1. Launch: docker run -d ... 后台启动, stdout 返回容器ID
//  2. Wait:   docker wait <id> 阻塞直到容器退出, stdout 返回容器退出码
//
// # 核心组件
//
// ## ProcessRunner
//
// 两阶段外部进程客户端接口, DockerRunner 为基于 os/exec 的实现。
// 测试中可替换为假实现以覆盖各种失败结果。
//
//	runner := NewDockerRunner("docker")
//	launch, err := runner.Launch(ctx, args)
//	wait, err := runner.Wait(ctx, launch.ID)
//
// ## BuildRunArgs
//
// 根据分块序号和爬取配置构造容器参数。挂载点固定为:
//
//	crawls     -> /crawls/    爬取输出根目录
//	extensions -> /ext/       浏览器扩展
//	profiles   -> /profiles/  浏览器配置档案
//	url_chunks -> /urls/      分块URL列表
//
// ## ResourceMonitor
//
// 基于gopsutil周期采样宿主机内存与CPU, 在每个分块派发前输出资源快照,
// 资源不足时告警。
package crawlers
