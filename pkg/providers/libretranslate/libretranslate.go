package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/retry"
)

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
	// LibreTranslate特定配置
	RequiresAPIKey bool `json:"requires_api_key"` // 服务器是否需要API密钥
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:     providers.DefaultConfig(),
		RequiresAPIKey: false,
	}
	// 默认使用官方演示服务器
	config.APIEndpoint = "https://libretranslate.com"
	return config
}

// Provider LibreTranslate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的LibreTranslate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "https://libretranslate.com"
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")

	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = config.MaxRetries
	retryConfig.InitialDelay = config.RetryDelay

	return &Provider{
		config:     config,
		httpClient: config.HTTPClient(),
		retrier:    retry.NewNetworkRetrier(retryConfig),
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "libretranslate"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxBatchSize:   0,
		MaxTextLength:  5000,
		SupportsHTML:   true,
		RequiresAPIKey: p.config.RequiresAPIKey,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/languages", nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}
	return nil
}

// TranslateBatch 执行批量翻译，q 以数组形式提交
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if len(req.Contents) == 0 {
		return &providers.ProviderResponse{Translations: []string{}}, nil
	}

	translateReq := TranslateRequest{
		Q:      req.Contents,
		Source: normalizeLanguageCode(req.SourceLanguage),
		Target: normalizeLanguageCode(req.TargetLanguage),
		Format: "text",
	}
	if translateReq.Source == "" {
		translateReq.Source = "auto"
	}
	if req.IsHTML() {
		translateReq.Format = "html"
	}
	if p.config.APIKey != "" {
		translateReq.APIKey = p.config.APIKey
	}

	body, err := json.Marshal(translateReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := p.retrier.Do(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint+"/translate", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out TranslateResponse
	if err := providers.DecodeJSON(resp, "LibreTranslate", &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, providers.NewError("server_error", "LibreTranslate error: "+out.Error)
	}
	if err := providers.CheckCount("LibreTranslate", len(req.Contents), len(out.TranslatedText)); err != nil {
		return nil, err
	}

	return &providers.ProviderResponse{Translations: out.TranslatedText}, nil
}

// normalizeLanguageCode LibreTranslate 只接受主语言代码（zh-CN -> zh）
func normalizeLanguageCode(lang string) string {
	code := providers.NormalizeLanguage(lang)
	if i := strings.IndexByte(code, '-'); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
	APIKey string   `json:"api_key,omitempty"`
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	TranslatedText []string `json:"translatedText"`
	Error          string   `json:"error,omitempty"`
}
