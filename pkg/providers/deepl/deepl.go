package deepl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/retry"
)

// Config DeepL配置
type Config struct {
	providers.BaseConfig
	UseFreeAPI bool `json:"use_free_api"` // 是否使用免费API
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
		UseFreeAPI: false,
	}
}

// Provider DeepL提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

// 确保 Provider 实现 providers.Provider 接口
var _ providers.Provider = (*Provider)(nil)

// New 创建新的DeepL提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		if config.UseFreeAPI {
			config.APIEndpoint = "https://api-free.deepl.com/v2"
		} else {
			config.APIEndpoint = "https://api.deepl.com/v2"
		}
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
	return "deepl"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxBatchSize:   50, // 单次请求最多 50 个 text 参数
		MaxTextLength:  130000,
		SupportsHTML:   true,
		RequiresAPIKey: true,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	// 检查使用量
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/usage", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)

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

// TranslateBatch 执行批量翻译，text 参数重复传入
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if len(req.Contents) == 0 {
		return &providers.ProviderResponse{Translations: []string{}}, nil
	}

	params := url.Values{}
	for _, text := range req.Contents {
		params.Add("text", text)
	}
	if source := normalizeLanguageCode(req.SourceLanguage, true); source != "" {
		params.Set("source_lang", source)
	}
	params.Set("target_lang", normalizeLanguageCode(req.TargetLanguage, false))
	if req.IsHTML() {
		params.Set("tag_handling", "html")
	}
	encoded := params.Encode()

	resp, err := p.retrier.Do(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint+"/translate", strings.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)
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
	if err := providers.DecodeJSON(resp, "DeepL", &out); err != nil {
		return nil, err
	}
	if err := providers.CheckCount("DeepL", len(req.Contents), len(out.Translations)); err != nil {
		return nil, err
	}

	result := &providers.ProviderResponse{
		Translations:            make([]string, len(out.Translations)),
		DetectedSourceLanguages: make([]string, len(out.Translations)),
	}
	for i, t := range out.Translations {
		result.Translations[i] = t.Text
		result.DetectedSourceLanguages[i] = strings.ToLower(t.DetectedSourceLanguage)
	}
	return result, nil
}

// normalizeLanguageCode 标准化语言代码为DeepL格式
func normalizeLanguageCode(lang string, isSource bool) string {
	code := strings.ToUpper(providers.NormalizeLanguage(lang))
	if code == "" {
		return ""
	}

	// 源语言只接受主语言代码
	if isSource {
		if i := strings.IndexByte(code, '-'); i > 0 {
			return code[:i]
		}
		return code
	}

	// 对于英语和葡萄牙语，目标语言需要指定变体
	switch code {
	case "EN":
		return "EN-US" // 默认美式英语
	case "PT":
		return "PT-BR" // 默认巴西葡萄牙语
	case "ZH-CN", "ZH-HANS":
		return "ZH"
	}

	return code
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}
