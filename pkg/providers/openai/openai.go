package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	goopenai "github.com/sashabaranov/go-openai"
)

// Config OpenAI配置
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxTokens:   4096,
	}
}

// Provider 基于聊天补全接口的批量翻译提供商
type Provider struct {
	config Config
	client *goopenai.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的OpenAI提供商
func New(config Config) *Provider {
	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.APIEndpoint != "" {
		clientConfig.BaseURL = strings.TrimRight(config.APIEndpoint, "/")
	}
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}

	return &Provider{
		config: config,
		client: goopenai.NewClientWithConfig(clientConfig),
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxBatchSize:   64, // 控制单次提示词长度
		MaxTextLength:  8000,
		SupportsHTML:   true,
		RequiresAPIKey: true,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.ListModels(ctx)
	return err
}

const systemPrompt = `You are a translation engine for a retail kiosk website.
You receive a JSON object {"target": <language code>, "source": <language code or empty>, "mimeType": <mime type>, "texts": [<strings>]}.
Translate every string into the target language. Keep HTML tags unchanged when mimeType is text/html.
Respond with a JSON object {"translations": [<strings>]} with exactly one entry per input string, in the same order.`

type batchPrompt struct {
	Target   string   `json:"target"`
	Source   string   `json:"source"`
	MimeType string   `json:"mimeType"`
	Texts    []string `json:"texts"`
}

type batchReply struct {
	Translations []string `json:"translations"`
}

// TranslateBatch 执行批量翻译
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if len(req.Contents) == 0 {
		return &providers.ProviderResponse{Translations: []string{}}, nil
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}
	payload, err := json.Marshal(batchPrompt{
		Target:   providers.NormalizeLanguage(req.TargetLanguage),
		Source:   providers.NormalizeLanguage(req.SourceLanguage),
		MimeType: mimeType,
		Texts:    req.Contents,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompt: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.config.Model,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, providers.NewError("bad_response", "OpenAI returned no choices")
	}

	var reply batchReply
	content := cleanReply(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, providers.NewError("bad_response", fmt.Sprintf("OpenAI returned invalid JSON: %v", err))
	}
	if err := providers.CheckCount("OpenAI", len(req.Contents), len(reply.Translations)); err != nil {
		return nil, err
	}

	return &providers.ProviderResponse{Translations: reply.Translations}, nil
}
