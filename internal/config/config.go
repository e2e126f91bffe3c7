package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 KIOSK_TRANSLATION_ENABLED
const EnvPrefix = "KIOSK"

// ProviderNames 支持的上游提供商
var ProviderNames = []string{"deepl", "google", "libretranslate", "openai", "raw"}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"` // 请求体上限
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TranslationConfig 翻译网关配置
type TranslationConfig struct {
	Enabled         bool          `mapstructure:"enabled"`          // 管理开关，关闭时接口返回 503
	Provider        string        `mapstructure:"provider"`         // 上游提供商名称
	BaseLanguage    string        `mapstructure:"base_language"`    // 页面原始语言
	CacheCapacity   int           `mapstructure:"cache_capacity"`   // FIFO 缓存容量
	MaxBatchSize    int           `mapstructure:"max_batch_size"`   // 单次上游调用的最大条目数
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"` // 单次上游调用超时
	MaxRetries      int           `mapstructure:"max_retries"`      // 上游重试次数，0 表示不重试
	CacheDB         string        `mapstructure:"cache_db"`         // sqlite 缓存文件，空表示只用内存
	StatsFile       string        `mapstructure:"stats_file"`       // 统计数据库文件，空表示不记录
}

// ProviderConfig 单个提供商配置
type ProviderConfig struct {
	APIKey      string `mapstructure:"api_key"`
	APIEndpoint string `mapstructure:"api_endpoint"`
	ProjectID   string `mapstructure:"project_id"` // 仅 google v3
	Location    string `mapstructure:"location"`   // 仅 google v3
	Model       string `mapstructure:"model"`      // 仅 openai
	UseFreeAPI  bool   `mapstructure:"use_free_api"`
	Pseudo      bool   `mapstructure:"pseudo"` // 仅 raw，输出 "[目标语言] 原文"
}

// Config 保存应用的所有配置
type Config struct {
	Server      ServerConfig              `mapstructure:"server"`
	Translation TranslationConfig         `mapstructure:"translation"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
	Debug       bool                      `mapstructure:"debug"`
	LogLevel    string                    `mapstructure:"log_level"`
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":3000",
			MaxBodyBytes: 1 << 20,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Translation: TranslationConfig{
			Enabled:         true,
			Provider:        "raw",
			BaseLanguage:    "en",
			CacheCapacity:   2000,
			MaxBatchSize:    128,
			UpstreamTimeout: 15 * time.Second,
			MaxRetries:      0,
		},
		Providers: map[string]ProviderConfig{},
		LogLevel:  "info",
	}
}

// setDefaults 把默认值注册到 viper，环境变量覆盖依赖这些键
func setDefaults(v *viper.Viper) {
	def := NewDefaultConfig()

	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.max_body_bytes", def.Server.MaxBodyBytes)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)

	v.SetDefault("translation.enabled", def.Translation.Enabled)
	v.SetDefault("translation.provider", def.Translation.Provider)
	v.SetDefault("translation.base_language", def.Translation.BaseLanguage)
	v.SetDefault("translation.cache_capacity", def.Translation.CacheCapacity)
	v.SetDefault("translation.max_batch_size", def.Translation.MaxBatchSize)
	v.SetDefault("translation.upstream_timeout", def.Translation.UpstreamTimeout)
	v.SetDefault("translation.max_retries", def.Translation.MaxRetries)
	v.SetDefault("translation.cache_db", "")
	v.SetDefault("translation.stats_file", "")

	for _, name := range ProviderNames {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"api_key", "")
		v.SetDefault(prefix+"api_endpoint", "")
		v.SetDefault(prefix+"project_id", "")
		v.SetDefault(prefix+"location", "")
		v.SetDefault(prefix+"model", "")
		v.SetDefault(prefix+"use_free_api", false)
		v.SetDefault(prefix+"pseudo", false)
	}

	v.SetDefault("debug", def.Debug)
	v.SetDefault("log_level", def.LogLevel)
}

// LoadConfig 从文件和环境变量加载配置
//
// configPath 为空时依次在家目录和当前目录查找 .kiosk.yaml，找不到时使用默认值。
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".kiosk")
		v.SetConfigType("yaml")
	}

	// 读取环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Translation.CacheCapacity <= 0 {
		return fmt.Errorf("translation.cache_capacity must be positive, got %d", c.Translation.CacheCapacity)
	}
	if c.Translation.MaxBatchSize <= 0 {
		return fmt.Errorf("translation.max_batch_size must be positive, got %d", c.Translation.MaxBatchSize)
	}
	if c.Translation.UpstreamTimeout <= 0 {
		return fmt.Errorf("translation.upstream_timeout must be positive, got %s", c.Translation.UpstreamTimeout)
	}
	if c.Translation.MaxRetries < 0 {
		return fmt.Errorf("translation.max_retries must not be negative, got %d", c.Translation.MaxRetries)
	}
	if strings.TrimSpace(c.Translation.BaseLanguage) == "" {
		return errors.New("translation.base_language must be specified")
	}
	if !IsKnownProvider(c.Translation.Provider) {
		return fmt.Errorf("unknown provider %q (supported: %s)", c.Translation.Provider, strings.Join(ProviderNames, ", "))
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

// Provider 返回当前选择的提供商配置
func (c *Config) Provider() ProviderConfig {
	return c.Providers[c.Translation.Provider]
}

// IsKnownProvider 判断提供商名称是否受支持
func IsKnownProvider(name string) bool {
	for _, n := range ProviderNames {
		if n == name {
			return true
		}
	}
	return false
}
