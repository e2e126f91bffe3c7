package pagescan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
)

// DefaultEndpoint 网关批量翻译路径
const DefaultEndpoint = "/api/translate"

// Client 访问批量翻译网关的 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端，baseURL 形如 http://127.0.0.1:3000
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// gatewayReply 容忍形状不合法的响应体
type gatewayReply struct {
	Results json.RawMessage `json:"results"`
	Error   any             `json:"error"`
}

// Translate 发送一次批量翻译请求
//
// 非 2xx 状态或 error 字段非空时返回 *translation.TranslationError；results 缺失或不是数组时返回 ErrMalformedResponse。
// 数组中的 null 和非字符串元素视为空结果。
func (c *Client) Translate(ctx context.Context, req *translation.BatchRequest) (*translation.BatchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DefaultEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, translation.NewTranslationError(translation.ErrCodeNetwork, "gateway request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translation.NewTranslationError(translation.ErrCodeNetwork, "failed to read gateway response", err)
	}

	var reply gatewayReply
	decodeErr := json.Unmarshal(data, &reply)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		if decodeErr == nil {
			if s := errorMessage(reply.Error); s != "" {
				msg = s
			}
		}
		return nil, translation.NewTranslationError(statusErrorCode(resp.StatusCode), msg, nil)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", translation.ErrMalformedResponse, decodeErr)
	}
	if msg := errorMessage(reply.Error); msg != "" {
		return nil, translation.NewTranslationError(translation.ErrCodeUpstream, msg, nil)
	}
	results, err := decodeResults(reply.Results)
	if err != nil {
		return nil, err
	}
	return &translation.BatchResponse{Results: results}, nil
}

// decodeResults 解析 results 数组
func decodeResults(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, translation.ErrMalformedResponse
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: results is not an array", translation.ErrMalformedResponse)
	}
	out := make([]string, len(items))
	for i, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out[i] = s
		}
	}
	return out, nil
}

// errorMessage 取出 error 字段的文本，字段缺失、为 null 或为空时返回空串
func errorMessage(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(e)
	case bool:
		if !e {
			return ""
		}
	}
	return fmt.Sprint(v)
}

func statusErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return translation.ErrCodeValidation
	case http.StatusServiceUnavailable:
		return translation.ErrCodeDisabled
	default:
		return translation.ErrCodeUpstream
	}
}
