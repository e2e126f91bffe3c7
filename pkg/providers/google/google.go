package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/retry"
)

const (
	defaultV2Endpoint = "https://translation.googleapis.com/language/translate/v2"
	defaultV3Endpoint = "https://translation.googleapis.com/v3"
	defaultLocation   = "global"
)

// Config Google Translate配置
type Config struct {
	providers.BaseConfig
	// ProjectID 设置后使用 Cloud Translation v3 接口
	ProjectID string `json:"project_id,omitempty"`
	// Location v3 区域，默认 global
	Location string `json:"location,omitempty"`
	// AccessToken v3 接口使用的 OAuth2 访问令牌
	AccessToken string `json:"access_token,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
		Location:   defaultLocation,
	}
	return config
}

// Provider Google Translate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的Google Translate提供商
func New(config Config) *Provider {
	if config.Location == "" {
		config.Location = defaultLocation
	}
	if config.APIEndpoint == "" {
		if config.ProjectID != "" {
			config.APIEndpoint = defaultV3Endpoint
		} else {
			config.APIEndpoint = defaultV2Endpoint
		}
	}

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
	return "google"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	maxBatch := 128 // v2 单次最多 128 段
	if p.config.ProjectID != "" {
		maxBatch = 1024
	}
	return providers.Capabilities{
		MaxBatchSize:   maxBatch,
		MaxTextLength:  30000,
		SupportsHTML:   true,
		RequiresAPIKey: true,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.TranslateBatch(ctx, &providers.ProviderRequest{
		Contents:       []string{"Hello"},
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	return err
}

// TranslateBatch 执行批量翻译
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if len(req.Contents) == 0 {
		return &providers.ProviderResponse{Translations: []string{}}, nil
	}
	if p.config.ProjectID != "" {
		return p.translateV3(ctx, req)
	}
	return p.translateV2(ctx, req)
}

// translateV3 调用 Cloud Translation v3 translateText
func (p *Provider) translateV3(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	mimeType := "text/plain"
	if req.IsHTML() {
		mimeType = "text/html"
	}

	body, err := json.Marshal(translateTextRequest{
		Contents:           req.Contents,
		TargetLanguageCode: providers.NormalizeLanguage(req.TargetLanguage),
		SourceLanguageCode: providers.NormalizeLanguage(req.SourceLanguage),
		MimeType:           mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/projects/%s/locations/%s:translateText",
		strings.TrimRight(p.config.APIEndpoint, "/"), p.config.ProjectID, p.config.Location)

	resp, err := p.retrier.Do(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
		if p.config.AccessToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
		}
		httpReq.Header.Set("x-goog-user-project", p.config.ProjectID)
		p.setHeaders(httpReq)
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out translateTextResponse
	if err := providers.DecodeJSON(resp, "Google", &out); err != nil {
		return nil, err
	}
	if err := providers.CheckCount("Google", len(req.Contents), len(out.Translations)); err != nil {
		return nil, err
	}

	result := &providers.ProviderResponse{
		Translations:            make([]string, len(out.Translations)),
		DetectedSourceLanguages: make([]string, len(out.Translations)),
	}
	for i, t := range out.Translations {
		result.Translations[i] = t.TranslatedText
		result.DetectedSourceLanguages[i] = t.DetectedLanguageCode
	}
	return result, nil
}

// translateV2 调用 v2 接口，q 参数重复传入实现批量
func (p *Provider) translateV2(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	params := url.Values{}
	for _, text := range req.Contents {
		params.Add("q", text)
	}
	params.Set("target", providers.NormalizeLanguage(req.TargetLanguage))
	if source := providers.NormalizeLanguage(req.SourceLanguage); source != "" {
		params.Set("source", source)
	}
	params.Set("format", "text")
	if req.IsHTML() {
		params.Set("format", "html")
	}
	encoded := params.Encode()

	endpoint := p.config.APIEndpoint
	if p.config.APIKey != "" {
		endpoint += "?key=" + url.QueryEscape(p.config.APIKey)
	}

	resp, err := p.retrier.Do(ctx, p.httpClient, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		p.setHeaders(httpReq)
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out translateV2Response
	if err := providers.DecodeJSON(resp, "Google", &out); err != nil {
		return nil, err
	}
	if err := providers.CheckCount("Google", len(req.Contents), len(out.Data.Translations)); err != nil {
		return nil, err
	}

	result := &providers.ProviderResponse{
		Translations:            make([]string, len(out.Data.Translations)),
		DetectedSourceLanguages: make([]string, len(out.Data.Translations)),
	}
	for i, t := range out.Data.Translations {
		result.Translations[i] = t.TranslatedText
		result.DetectedSourceLanguages[i] = t.DetectedSourceLanguage
	}
	return result, nil
}

func (p *Provider) setHeaders(req *http.Request) {
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}
}

// translateTextRequest v3 请求
type translateTextRequest struct {
	Contents           []string `json:"contents"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
	SourceLanguageCode string   `json:"sourceLanguageCode,omitempty"`
	MimeType           string   `json:"mimeType"`
}

// translateTextResponse v3 响应
type translateTextResponse struct {
	Translations []struct {
		TranslatedText       string `json:"translatedText"`
		DetectedLanguageCode string `json:"detectedLanguageCode,omitempty"`
	} `json:"translations"`
}

// translateV2Response v2 响应
type translateV2Response struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
}
