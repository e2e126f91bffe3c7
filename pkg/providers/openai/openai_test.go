package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer 模拟聊天补全接口，返回给定的消息内容
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]string{"role": "assistant", "content": content},
				},
			},
		})
	}))
}

func newTestProvider(url string) *Provider {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.APIEndpoint = url
	return New(cfg)
}

func TestTranslateBatch(t *testing.T) {
	server := chatServer(t, `{"translations":["Bonjour","Au revoir"]}`)
	defer server.Close()

	resp, err := newTestProvider(server.URL).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello", "Bye"},
		TargetLanguage: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bonjour", "Au revoir"}, resp.Translations)
}

func TestTranslateBatchCountMismatch(t *testing.T) {
	server := chatServer(t, `{"translations":["Bonjour"]}`)
	defer server.Close()

	_, err := newTestProvider(server.URL).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello", "Bye"},
		TargetLanguage: "fr",
	})
	var perr *providers.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad_response", perr.Code)
}

func TestTranslateBatchInvalidJSON(t *testing.T) {
	server := chatServer(t, `Bonjour`)
	defer server.Close()

	_, err := newTestProvider(server.URL).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello"},
		TargetLanguage: "fr",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestTranslateBatchStripsReasoning(t *testing.T) {
	server := chatServer(t, "<think>the user wants French</think>\n```json\n{\"translations\":[\"Bonjour\"]}\n```")
	defer server.Close()

	resp, err := newTestProvider(server.URL).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello"},
		TargetLanguage: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bonjour"}, resp.Translations)
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"translations":[]}`, `{"translations":[]}`},
		{"  <thinking>\nplan\n</thinking> {\"a\":1}", `{"a":1}`},
		{"[REASONING]x[/REASONING]```\n{}\n```", `{}`},
		{"```json\n{\"translations\":[\"<think>\"]}```", `{"translations":["<think>"]}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanReply(tt.in))
	}
}
