package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// 最大重试次数，0 表示只请求一次
	MaxRetries int `json:"max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`

	// 网络错误的初始延迟（通常更短）
	NetworkInitialDelay time.Duration `json:"network_initial_delay"`
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          0,
		InitialDelay:        1 * time.Second,
		MaxDelay:            30 * time.Second,
		BackoffFactor:       2.0,
		NetworkInitialDelay: 100 * time.Millisecond,
	}
}

// ErrorType 错误类型枚举
type ErrorType int

const (
	ErrorTypeNone          ErrorType = iota
	ErrorTypeNetwork                 // 网络瞬时错误
	ErrorTypeRetryableHTTP           // 可重试的HTTP错误（429）
	ErrorTypeClientError             // 客户端错误（4xx）
	ErrorTypeServerError             // 服务端错误（5xx）
	ErrorTypePermanent               // 永久性错误
)

// NetworkRetrier 网络重试器
type NetworkRetrier struct {
	config RetryConfig
}

// NewNetworkRetrier 创建网络重试器
func NewNetworkRetrier(config RetryConfig) *NetworkRetrier {
	return &NetworkRetrier{
		config: config,
	}
}

// RequestFactory 每次尝试都重新构造请求，避免请求体被消费后无法重发
type RequestFactory func(ctx context.Context) (*http.Request, error)

// Do 执行带重试的请求
//
// 成功时返回2xx响应；最后一次尝试得到非2xx响应时返回该响应且 err 为 nil，
// 由调用方解析错误体。
func (nr *NetworkRetrier) Do(ctx context.Context, client *http.Client, newRequest RequestFactory) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= nr.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := nr.calculateDelay(nr.isNetworkError(lastErr), attempt)
			select {
			case <-ctx.Done():
				if lastResp != nil {
					lastResp.Body.Close()
				}
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if lastResp != nil {
				lastResp.Body.Close()
			}
			return resp, nil
		}

		if lastResp != nil {
			lastResp.Body.Close()
		}
		lastResp, lastErr = resp, err

		if !nr.shouldRetry(nr.classifyError(err, resp)) {
			break
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	if lastResp != nil {
		return lastResp, nil
	}
	return nil, errors.New("no response received")
}

// classifyError 分类错误
func (nr *NetworkRetrier) classifyError(err error, resp *http.Response) ErrorType {
	if err != nil {
		if nr.isNetworkError(err) {
			return ErrorTypeNetwork
		}
		return ErrorTypePermanent
	}

	if resp != nil {
		switch {
		case resp.StatusCode >= 500:
			return ErrorTypeServerError
		case resp.StatusCode == http.StatusTooManyRequests:
			return ErrorTypeRetryableHTTP
		case resp.StatusCode >= 400:
			return ErrorTypeClientError
		}
	}

	return ErrorTypeNone
}

// isNetworkError 判断是否为网络错误
func (nr *NetworkRetrier) isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// 上下文取消或超时不重试
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		if nr.isNetworkError(urlErr.Err) {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"eof",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// shouldRetry 判断是否应该重试
func (nr *NetworkRetrier) shouldRetry(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError, ErrorTypeRetryableHTTP:
		return true
	default:
		return false
	}
}

// calculateDelay 计算延迟时间
func (nr *NetworkRetrier) calculateDelay(isNetworkError bool, attempt int) time.Duration {
	delay := nr.config.InitialDelay
	if isNetworkError {
		delay = nr.config.NetworkInitialDelay
	}

	// 指数退避
	if attempt > 1 {
		backoffFactor := nr.config.BackoffFactor
		if backoffFactor <= 1.0 {
			backoffFactor = 2.0
		}
		delay = time.Duration(float64(delay) * math.Pow(backoffFactor, float64(attempt-1)))
	}

	if nr.config.MaxDelay > 0 && delay > nr.config.MaxDelay {
		delay = nr.config.MaxDelay
	}

	return delay
}
