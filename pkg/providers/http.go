package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody 读取错误响应体的上限
const maxErrorBody = 4096

// DecodeJSON 检查状态码并解码JSON响应体，调用方负责关闭 resp.Body
func DecodeJSON(resp *http.Response, vendor string, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("%s API error (%d): %s", vendor, resp.StatusCode, msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", vendor, err)
	}
	return nil
}

// CheckCount 校验上游返回的译文数量
func CheckCount(vendor string, want, got int) error {
	if want != got {
		return NewError("bad_response", fmt.Sprintf("%s returned %d translations for %d texts", vendor, got, want))
	}
	return nil
}
