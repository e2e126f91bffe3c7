package factory

import (
	"fmt"
	"time"

	"github.com/nerdneilsfield/kiosk-translate/internal/config"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/deepl"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/google"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/libretranslate"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/openai"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/raw"
)

// Options 所有提供商共用的传输参数
type Options struct {
	Timeout    time.Duration // HTTP 客户端超时
	MaxRetries int           // 网络/5xx 重试次数
}

// ProviderFactory 提供商工厂
type ProviderFactory struct {
	registry *providers.Registry
	options  Options
}

// New 创建新的提供商工厂
func New(options Options) *ProviderFactory {
	return &ProviderFactory{
		registry: providers.NewRegistry(),
		options:  options,
	}
}

// Registry 返回已创建提供商的注册表
func (f *ProviderFactory) Registry() *providers.Registry {
	return f.registry
}

// CreateProvider 根据配置创建提供商，同名提供商只创建一次
func (f *ProviderFactory) CreateProvider(providerType string, providerConfig config.ProviderConfig) (providers.Provider, error) {
	if p, err := f.registry.Get(providerType); err == nil {
		return p, nil
	}

	var provider providers.Provider
	switch providerType {
	case "openai":
		provider = f.createOpenAIProvider(providerConfig)
	case "deepl":
		provider = f.createDeepLProvider(providerConfig)
	case "google":
		provider = f.createGoogleProvider(providerConfig)
	case "libretranslate":
		provider = f.createLibreTranslateProvider(providerConfig)
	case "raw", "none":
		provider = raw.New(raw.Config{BaseConfig: f.baseConfig(providerConfig), Pseudo: providerConfig.Pseudo})
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}

	if err := f.registry.Register(providerType, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// baseConfig 构造基础配置
func (f *ProviderFactory) baseConfig(providerConfig config.ProviderConfig) providers.BaseConfig {
	base := providers.DefaultConfig()
	base.APIKey = providerConfig.APIKey
	base.APIEndpoint = providerConfig.APIEndpoint
	if f.options.Timeout > 0 {
		base.Timeout = f.options.Timeout
	}
	base.MaxRetries = f.options.MaxRetries
	return base
}

// createOpenAIProvider 创建 OpenAI 提供商
func (f *ProviderFactory) createOpenAIProvider(providerConfig config.ProviderConfig) providers.Provider {
	cfg := openai.DefaultConfig()
	cfg.BaseConfig = f.baseConfig(providerConfig)
	if providerConfig.Model != "" {
		cfg.Model = providerConfig.Model
	}
	return openai.New(cfg)
}

// createDeepLProvider 创建 DeepL 提供商
func (f *ProviderFactory) createDeepLProvider(providerConfig config.ProviderConfig) providers.Provider {
	cfg := deepl.DefaultConfig()
	cfg.BaseConfig = f.baseConfig(providerConfig)
	cfg.UseFreeAPI = providerConfig.UseFreeAPI
	return deepl.New(cfg)
}

// createGoogleProvider 创建 Google Translate 提供商
func (f *ProviderFactory) createGoogleProvider(providerConfig config.ProviderConfig) providers.Provider {
	cfg := google.DefaultConfig()
	cfg.BaseConfig = f.baseConfig(providerConfig)
	cfg.ProjectID = providerConfig.ProjectID
	if providerConfig.Location != "" {
		cfg.Location = providerConfig.Location
	}
	// v3 使用 OAuth2 访问令牌，复用 api_key 字段传入
	if cfg.ProjectID != "" {
		cfg.AccessToken = providerConfig.APIKey
	}
	return google.New(cfg)
}

// createLibreTranslateProvider 创建 LibreTranslate 提供商
func (f *ProviderFactory) createLibreTranslateProvider(providerConfig config.ProviderConfig) providers.Provider {
	cfg := libretranslate.DefaultConfig()
	cfg.BaseConfig = f.baseConfig(providerConfig)
	cfg.RequiresAPIKey = providerConfig.APIKey != ""
	return libretranslate.New(cfg)
}
