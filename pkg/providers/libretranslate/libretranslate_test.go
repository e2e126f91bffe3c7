package libretranslate

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

func TestNormalizeLanguageCode(t *testing.T) {
	assert.Equal(t, "zh", normalizeLanguageCode("zh-CN"))
	assert.Equal(t, "pt", normalizeLanguageCode("pt_BR"))
	assert.Equal(t, "fr", normalizeLanguageCode("French"))
	assert.Equal(t, "", normalizeLanguageCode(""))
}

func TestTranslateBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)

		var req TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Hello", "Bye"}, req.Q)
		assert.Equal(t, "auto", req.Source)
		assert.Equal(t, "es", req.Target)
		assert.Equal(t, "text", req.Format)

		_ = json.NewEncoder(w).Encode(TranslateResponse{TranslatedText: []string{"Hola", "Adiós"}})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL + "/"

	resp, err := New(cfg).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello", "Bye"},
		TargetLanguage: "es",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hola", "Adiós"}, resp.Translations)
}

func TestTranslateBatchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL

	_, err := New(cfg).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello"},
		TargetLanguage: "es",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}
