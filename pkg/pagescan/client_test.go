package pagescan

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/internal/gateway"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/raw"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDecoding(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      []string
		malformed bool
		errMsg    string
	}{
		{name: "ok", status: 200, body: `{"results":["a","b"]}`, want: []string{"a", "b"}},
		{name: "null and non-string entries", status: 200, body: `{"results":["a",null,3,{"x":1}]}`, want: []string{"a", "", "", ""}},
		{name: "empty array", status: 200, body: `{"results":[]}`, want: []string{}},
		{name: "missing results", status: 200, body: `{}`, malformed: true},
		{name: "null results", status: 200, body: `{"results":null}`, malformed: true},
		{name: "results not array", status: 200, body: `{"results":"a"}`, malformed: true},
		{name: "not an object", status: 200, body: `["a"]`, malformed: true},
		{name: "not json", status: 200, body: `<html>`, malformed: true},
		{name: "error field on success", status: 200, body: `{"error":"quota","results":["a"]}`, errMsg: "quota"},
		{name: "disabled", status: 503, body: `{"error":"translation disabled"}`, errMsg: "translation disabled"},
		{name: "status without body", status: 500, body: ``, errMsg: "500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := staticServer(t, tt.status, tt.body)
			c := NewClient(srv.URL+"/", srv.Client())

			resp, err := c.Translate(context.Background(), &translation.BatchRequest{Texts: []string{"x"}, Target: "zh"})
			switch {
			case tt.malformed:
				assert.ErrorIs(t, err, translation.ErrMalformedResponse)
			case tt.errMsg != "":
				var te *translation.TranslationError
				require.True(t, errors.As(err, &te), "got %v", err)
				assert.Equal(t, tt.errMsg, te.Message)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, resp.Results)
			}
		})
	}
}

func TestClientSendsRequest(t *testing.T) {
	var gotPath, gotBody, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.Header.Get("X-Request-Id")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, `{"results":["x"]}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Translate(context.Background(), &translation.BatchRequest{
		Texts: []string{"Hi"}, Target: "de", MimeType: "text/html",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, gotPath)
	assert.NotEmpty(t, gotID)
	assert.JSONEq(t, `{"texts":["Hi"],"target":"de","mimeType":"text/html"}`, gotBody)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).Translate(context.Background(), &translation.BatchRequest{Texts: []string{"x"}, Target: "zh"})
	assert.Equal(t, translation.ErrCodeNetwork, translation.ErrorCode(err))
}

func TestSessionAgainstGateway(t *testing.T) {
	svc := gateway.New(raw.New(raw.Config{Pseudo: true}), gateway.DefaultOptions(), nil)
	srv := httptest.NewServer(svc.Handler(nil))
	defer srv.Close()

	s := newTestSession(t, NewClient(srv.URL, srv.Client()))
	original := render(t, s)

	require.NoError(t, s.Translate(context.Background(), "zh"))
	assert.Equal(t, "[zh] Welcome", s.Document().Find("h1").Text())
	assert.True(t, strings.Contains(render(t, s), `lang="zh"`))
	assert.Equal(t, 5, svc.Cache().Len())

	require.NoError(t, s.Translate(context.Background(), "zh"))
	assert.Equal(t, int64(1), svc.Counters().UpstreamCalls, "second pass served from cache")

	require.NoError(t, s.Translate(context.Background(), "en"))
	assert.Equal(t, original, render(t, s))

	svc.SetEnabled(false)
	err := s.Translate(context.Background(), "ja")
	assert.Equal(t, translation.ErrCodeDisabled, translation.ErrorCode(err))
	assert.Equal(t, original, render(t, s))
}

func TestSessionWithInProcessGateway(t *testing.T) {
	svc := gateway.New(raw.New(raw.Config{Pseudo: true}), gateway.DefaultOptions(), nil)
	var _ BatchTranslator = svc

	s := newTestSession(t, svc)
	require.NoError(t, s.Translate(context.Background(), "ko"))
	placeholder, _ := s.Document().Find("input").Attr("placeholder")
	assert.Equal(t, "[ko] Search", placeholder)
}
