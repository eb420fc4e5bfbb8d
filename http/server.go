// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"heartrisk/ml"
	"heartrisk/monitoring"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	// RequestsPerMinute per client; zero disables rate limiting.
	RequestsPerMinute int
	RateLimitClients  int
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              8080,
		Timeout:           30 * time.Second,
		AllowedOrigins:    []string{"*"},
		RequestsPerMinute: 120,
		RateLimitClients:  1024,
	}
}

// NewRouter wires every route and the middleware chain around them.
func NewRouter(config ServerConfig, inference *ml.InferenceContext, metrics *monitoring.Metrics, logger *zap.Logger) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	handlers := NewHandlers(inference, metrics, logger, config.AllowedOrigins)
	handlers.Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	rateLimit, err := RateLimitMiddleware(config.RequestsPerMinute, config.RateLimitClients)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	chain := Chain(
		RecoveryMiddleware(logger),            // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(logger),              // 2. 日志中间件
		SecurityHeadersMiddleware,             // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins), // 4. CORS中间件
		rateLimit,                             // 5. 限流中间件
		TimeoutMiddleware(config.Timeout),     // 6. 超时中间件
	)

	return chain(mux), nil
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, inference *ml.InferenceContext, metrics *monitoring.Metrics, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler, err := NewRouter(config, inference, metrics, logger)
	if err != nil {
		return nil, err
	}

	// No WriteTimeout: it would also cut prediction sessions. Plain requests
	// are bounded by TimeoutMiddleware instead.
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           handler,
			ReadHeaderTimeout: config.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		logger: logger,
	}, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", ln.Addr().String()),
		zap.String("websocket", "/api/ws/predict"),
	)

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
