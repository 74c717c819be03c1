package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 配置文件默认路径
const DefaultConfigFile = "config.yaml"

// 数据源类型
const (
	DataSourceCSV    = "csv"
	DataSourceMySQL  = "mysql"
	DataSourceSQLite = "sqlite"
)

// LLM 后端类型
const (
	BackendOpenAI = "openai"
	BackendLocal  = "local"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Addr string `yaml:"-"` // 不从配置文件读取，而是在加载后计算
	} `yaml:"server"`
	LLM struct {
		Backend    string `yaml:"backend"` // openai / local
		TimeoutSec int    `yaml:"timeout_sec"`
		OpenAI     struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
			Model   string `yaml:"model"`
		} `yaml:"openai"`
		Local struct {
			BaseURL string `yaml:"base_url"`
			Model   string `yaml:"model"`
		} `yaml:"local"`
	} `yaml:"llm"`
	DataSource struct {
		Type    string `yaml:"type"`     // csv / mysql / sqlite
		AdsDir  string `yaml:"ads_dir"`  // CSV 所在目录
		CSVFile string `yaml:"csv_file"` // 显式指定的 CSV 路径，优先于 ads_dir
		Table   string `yaml:"table"`    // SQL 数据源表名
		SQLite  string `yaml:"sqlite"`   // SQLite 文件路径
	} `yaml:"data_source"`
	DB struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		ParseTime       bool   `yaml:"parse_time"`
		DSN             string `yaml:"-"`                 // 不从配置文件读取，而是在加载后计算
		MaxOpenConns    int    `yaml:"max_open_conns"`    // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`    // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 连接最大生命周期（分钟）
	} `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
	Metrics  struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
	Scheduler struct {
		Enabled      bool   `yaml:"enabled"`
		Cron         string `yaml:"cron"`          // 五段式 cron 表达式
		Task         string `yaml:"task"`          // 定时任务描述
		LookbackDays int    `yaml:"lookback_days"` // 回溯天数
	} `yaml:"scheduler"`
}

// PipelineConfig 三阶段流水线参数
type PipelineConfig struct {
	MaxAttempts       int     `yaml:"max_attempts"`        // 优化阶段最大尝试次数
	PassThreshold     int     `yaml:"pass_threshold"`      // 品质评分通过门槛
	BaseTemperature   float64 `yaml:"base_temperature"`    // 优化阶段基础温度
	TemperatureStep   float64 `yaml:"temperature_step"`    // 每次重试增加的温度
	MaxTokens         int     `yaml:"max_tokens"`          // 优化阶段生成长度
	GraderMaxTokens   int     `yaml:"grader_max_tokens"`   // 评分调用生成长度
	SummaryPreviewLen int     `yaml:"summary_preview_len"` // 阶段摘要截断长度（字符）
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// DefaultPipelineConfig 返回流水线默认参数
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxAttempts:       3,
		PassThreshold:     80,
		BaseTemperature:   0.4,
		TemperatureStep:   0.1,
		MaxTokens:         1024,
		GraderMaxTokens:   512,
		SummaryPreviewLen: 200,
	}
}

// Load 从当前目录加载配置
func Load() *Config {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom 从指定路径加载配置，文件不存在时退回环境变量
func LoadFrom(path string) *Config {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return loadFromEnv()
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("Error loading %s: %v, falling back to environment variables", path, err)
		return loadFromEnv()
	}
	log.Printf("Loading configuration from %s", path)

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func loadFromEnv() *Config {
	var cfg Config

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	cfg.LLM.OpenAI.BaseURL = os.Getenv("LLM_API_BASE")
	cfg.LLM.OpenAI.Model = os.Getenv("LLM_MODEL_NAME")
	cfg.LLM.Local.BaseURL = os.Getenv("LOCAL_LLM_BASE_URL")
	cfg.LLM.Local.Model = os.Getenv("LOCAL_LLM_MODEL_NAME")
	cfg.DataSource.Type = os.Getenv("DATA_SOURCE_TYPE")
	cfg.DataSource.AdsDir = os.Getenv("ADS_DIR")
	cfg.DB.DSN = os.Getenv("DB_DSN")

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	log.Println("配置从环境变量加载，部分配置可能缺失")
	return &cfg
}

// applyEnvOverrides 敏感信息始终以环境变量为准
func applyEnvOverrides(cfg *Config) {
	if backend := os.Getenv("LLM_BACKEND"); backend != "" {
		cfg.LLM.Backend = backend
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		cfg.LLM.OpenAI.APIKey = apiKey
	}
	if username := os.Getenv("DATABASE_USERNAME"); username != "" {
		cfg.DB.Username = username
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	cfg.Server.Addr = fmt.Sprintf(":%d", cfg.Server.Port)

	cfg.LLM.Backend = strings.ToLower(strings.TrimSpace(cfg.LLM.Backend))
	if cfg.LLM.Backend == "" {
		cfg.LLM.Backend = BackendLocal
	}
	if cfg.LLM.TimeoutSec <= 0 {
		cfg.LLM.TimeoutSec = 600
	}
	cfg.LLM.OpenAI.BaseURL = defaultString(cfg.LLM.OpenAI.BaseURL, "https://api.openai.com/v1")
	cfg.LLM.OpenAI.Model = defaultString(cfg.LLM.OpenAI.Model, "gpt-4o-mini")
	cfg.LLM.Local.BaseURL = defaultString(cfg.LLM.Local.BaseURL, "http://localhost:11434")
	cfg.LLM.Local.Model = defaultString(cfg.LLM.Local.Model, "qwen2.5:7b")

	cfg.DataSource.Type = strings.ToLower(defaultString(cfg.DataSource.Type, DataSourceCSV))
	cfg.DataSource.AdsDir = defaultString(cfg.DataSource.AdsDir, filepath.Join("data", "ads"))
	cfg.DataSource.Table = defaultString(cfg.DataSource.Table, "ads_performance")

	if cfg.DB.DSN == "" && cfg.DB.Host != "" {
		if cfg.DB.Charset == "" {
			cfg.DB.Charset = "utf8mb4"
		}
		parseTime := ""
		if cfg.DB.ParseTime {
			parseTime = "&parseTime=true"
		}
		cfg.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s%s",
			cfg.DB.Username,
			cfg.DB.Password,
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.Database,
			cfg.DB.Charset,
			parseTime)
	}

	def := DefaultPipelineConfig()
	p := &cfg.Pipeline
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.PassThreshold <= 0 || p.PassThreshold > 100 {
		p.PassThreshold = def.PassThreshold
	}
	if p.BaseTemperature <= 0 {
		p.BaseTemperature = def.BaseTemperature
	}
	if p.TemperatureStep < 0 {
		p.TemperatureStep = def.TemperatureStep
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = def.MaxTokens
	}
	if p.GraderMaxTokens <= 0 {
		p.GraderMaxTokens = def.GraderMaxTokens
	}
	if p.SummaryPreviewLen <= 0 {
		p.SummaryPreviewLen = def.SummaryPreviewLen
	}

	cfg.Log.Level = defaultString(cfg.Log.Level, "info")
	cfg.Log.Format = defaultString(cfg.Log.Format, "text")
	cfg.Log.Output = defaultString(cfg.Log.Output, "stdout")

	cfg.Metrics.Namespace = defaultString(cfg.Metrics.Namespace, "ad_insight")

	cfg.Scheduler.Cron = defaultString(cfg.Scheduler.Cron, "0 9 * * *")
	cfg.Scheduler.Task = defaultString(cfg.Scheduler.Task, "每日廣告成效巡檢")
	if cfg.Scheduler.LookbackDays <= 0 {
		cfg.Scheduler.LookbackDays = 7
	}
}

// CSVPath 解析广告 CSV 路径，必要时创建目录
func (c *Config) CSVPath() (string, error) {
	if c.DataSource.CSVFile != "" {
		return c.DataSource.CSVFile, nil
	}
	if err := os.MkdirAll(c.DataSource.AdsDir, 0755); err != nil {
		return "", fmt.Errorf("创建数据目录失败: %w", err)
	}
	return filepath.Join(c.DataSource.AdsDir, "ads_performance.csv"), nil
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
