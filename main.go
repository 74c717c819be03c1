package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "github.com/swaggo/swag" // 导入 swag

	"ad_insight_agent/config"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "ad-insight-agent",
		Short: "广告成效分析与优化建议服务",
		Long: `读取广告成效数据，按 campaign 汇总后交由语言模型分析，
并生成经过结构校验与品质评分的优化建议。默认启动 HTTP 服务。`,
		SilenceUsage: true,
		RunE:         runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认 "+config.DefaultConfigFile+"）")
	rootCmd.AddCommand(serveCmd, runCmd)
}

// loadConfig 按命令行参数加载配置
func loadConfig() *config.Config {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
