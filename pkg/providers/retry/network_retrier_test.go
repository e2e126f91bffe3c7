package retry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGet(url string) RequestFactory {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func fastConfig(retries int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = retries
	cfg.InitialDelay = time.Millisecond
	cfg.NetworkInitialDelay = time.Millisecond
	return cfg
}

func TestDoWithoutRetriesCallsOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resp, err := NewNetworkRetrier(fastConfig(0)).Do(context.Background(), server.Client(), newGet(server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := NewNetworkRetrier(fastConfig(3)).Do(context.Background(), server.Client(), newGet(server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	resp, err := NewNetworkRetrier(fastConfig(3)).Do(context.Background(), server.Client(), newGet(server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoPropagatesFactoryError(t *testing.T) {
	factoryErr := errors.New("boom")
	_, err := NewNetworkRetrier(fastConfig(2)).Do(context.Background(), http.DefaultClient,
		func(ctx context.Context) (*http.Request, error) { return nil, factoryErr })
	assert.ErrorIs(t, err, factoryErr)
}

func TestCalculateDelayCapped(t *testing.T) {
	nr := NewNetworkRetrier(RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, BackoffFactor: 2})
	assert.Equal(t, time.Second, nr.calculateDelay(false, 1))
	assert.Equal(t, 2*time.Second, nr.calculateDelay(false, 2))
	assert.Equal(t, 3*time.Second, nr.calculateDelay(false, 5))
}

func TestIsNetworkError(t *testing.T) {
	nr := NewNetworkRetrier(DefaultRetryConfig())
	assert.False(t, nr.isNetworkError(nil))
	assert.False(t, nr.isNetworkError(context.DeadlineExceeded))
	assert.True(t, nr.isNetworkError(errors.New("read: connection reset by peer")))
	assert.False(t, nr.isNetworkError(errors.New("invalid api key")))
}
