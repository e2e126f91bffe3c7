package raw

import (
	"context"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
)

// Config Raw 提供商配置（实际上不需要任何配置）
type Config struct {
	providers.BaseConfig
	// Pseudo 为 true 时返回 "[目标语言] 原文"，便于在页面上确认替换位置
	Pseudo bool `json:"pseudo"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
	}
}

// Provider Raw 提供商实现（跳过翻译，直接返回原文）
type Provider struct {
	config Config
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的 Raw 提供商
func New(config Config) *Provider {
	return &Provider{
		config: config,
	}
}

// TranslateBatch 执行翻译（直接返回原文）
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	translations := make([]string, len(req.Contents))
	for i, text := range req.Contents {
		if p.config.Pseudo {
			translations[i] = "[" + req.TargetLanguage + "] " + text
		} else {
			translations[i] = text
		}
	}
	return &providers.ProviderResponse{Translations: translations}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "raw"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxBatchSize:   0, // 无限制
		MaxTextLength:  0,
		SupportsHTML:   true,
		RequiresAPIKey: false,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	return nil
}
