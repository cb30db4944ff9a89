package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"funglish/internal/ai"
	"funglish/internal/config"
	"funglish/internal/handler"
	"funglish/internal/server/middleware"
	"funglish/internal/session"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	agent  *ai.Agent
	store  *session.Store
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化助教，API key 缺失时直接失败
	agent, err := ai.NewAgent(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tutor agent: %w", err)
	}

	store := session.NewStore(&cfg.Session)

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		agent:  agent,
		store:  store,
	}

	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 前端静态页面（可选）
	if s.cfg.Server.StaticDir != "" {
		s.engine.Static("/static", s.cfg.Server.StaticDir)
		s.engine.StaticFile("/", s.cfg.Server.StaticDir+"/index.html")
	}

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		sessionHdl := handler.NewSessionHandler(s.store)
		v1.POST("/session", sessionHdl.Start)
		v1.GET("/session/:id", sessionHdl.Info)

		chatHdl := handler.NewChatHandler(s.agent, s.store)
		v1.POST("/chat/stream", chatHdl.ChatStream)
		v1.POST("/chat/direct", chatHdl.ChatDirect)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
