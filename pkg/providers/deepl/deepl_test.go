package deepl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguageCode(t *testing.T) {
	assert.Equal(t, "EN-US", normalizeLanguageCode("en", false))
	assert.Equal(t, "EN", normalizeLanguageCode("en-GB", true))
	assert.Equal(t, "PT-BR", normalizeLanguageCode("portuguese", false))
	assert.Equal(t, "ZH", normalizeLanguageCode("zh_CN", false))
	assert.Equal(t, "", normalizeLanguageCode("", true))
}

func TestNewFreeEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseFreeAPI = true
	assert.Equal(t, "https://api-free.deepl.com/v2", New(cfg).config.APIEndpoint)
}

func TestTranslateBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/translate", r.URL.Path)
		assert.Equal(t, "DeepL-Auth-Key key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, []string{"Hello", "Bye"}, r.PostForm["text"])
		assert.Equal(t, "DE", r.PostForm.Get("target_lang"))
		assert.Empty(t, r.PostForm.Get("source_lang"))

		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"Hallo"},{"detected_source_language":"EN","text":"Tschüss"}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL + "/v2"
	cfg.APIKey = "key"

	resp, err := New(cfg).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello", "Bye"},
		TargetLanguage: "de",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hallo", "Tschüss"}, resp.Translations)
	assert.Equal(t, []string{"en", "en"}, resp.DetectedSourceLanguages)
}

func TestTranslateBatchQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(456)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.APIEndpoint = server.URL

	_, err := New(cfg).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Hello"},
		TargetLanguage: "de",
	})
	var perr *providers.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 456, perr.StatusCode)
}
