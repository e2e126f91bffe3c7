package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	providerstats "github.com/nerdneilsfield/kiosk-translate/pkg/providers/stats"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"go.uber.org/zap"
)

// StatsSource 统计快照来源（通常是 internal/stats.Database）
type StatsSource interface {
	Snapshot() any
}

// StatsSourceFunc 函数形式的 StatsSource
type StatsSourceFunc func() any

// Snapshot 实现 StatsSource
func (f StatsSourceFunc) Snapshot() any { return f() }

// StatsResponse GET /api/translate/stats 的响应体
type StatsResponse struct {
	Enabled  bool                    `json:"enabled"`
	Provider string                  `json:"provider"`
	Cache    translation.CacheStats  `json:"cache"`
	Counters Counters                `json:"counters"`
	Upstream *providerstats.Counters `json:"upstream,omitempty"`
	Database any                     `json:"database,omitempty"`
}

// upstreamCounter 带内存计数的提供商（providerstats.StatisticsMiddleware）
type upstreamCounter interface {
	Counters() providerstats.Counters
}

// Handler 返回网关的 HTTP 路由
//
//	POST /api/translate        批量翻译
//	GET  /api/translate/stats  缓存与上游统计
//	GET  /healthz              健康检查
func (s *Service) Handler(statsSource StatsSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Post("/api/translate", s.handleTranslate)
	r.Get("/api/translate/stats", func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			Enabled:  s.Enabled(),
			Provider: s.provider.GetName(),
			Cache:    s.cache.Stats(),
			Counters: s.Counters(),
		}
		if uc, ok := s.provider.(upstreamCounter); ok {
			counters := uc.Counters()
			resp.Upstream = &counters
		}
		if statsSource != nil {
			resp.Database = statsSource.Snapshot()
		}
		writeJSON(w, http.StatusOK, resp)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func (s *Service) handleTranslate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req translation.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Debug("invalid translate request body",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusBadRequest, translation.ErrInvalidRequest)
		return
	}

	resp, err := s.Translate(r.Context(), &req)
	if err != nil {
		status := StatusCode(err)
		switch status {
		case http.StatusBadRequest:
			writeError(w, status, translation.ErrInvalidRequest)
		case http.StatusServiceUnavailable:
			writeError(w, status, translation.ErrFeatureDisabled)
		default:
			writeError(w, status, translation.ErrUpstreamFailure)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// StatusCode 把网关错误映射为 HTTP 状态码
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, translation.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, translation.ErrFeatureDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger 使用 zap 记录每个请求
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, translation.ErrorResponse{Error: err.Error()})
}
