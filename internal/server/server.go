// Package server wires the gin engine: home page, health probe, static
// files and CORS.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/config"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/db"
)

// PoolSource hands out the active pool. *db.Provider satisfies it.
type PoolSource interface {
	Pool() (*db.Pool, error)
}

// Server is the HTTP front of the application.
type Server struct {
	cfg    config.AppConfig
	pools  PoolSource
	logger *common.Logger
	engine *gin.Engine
}

// New builds the engine and registers every route. Templates are loaded
// from cfg.ViewsDir up front so a missing view fails at startup.
func New(cfg config.AppConfig, pools PoolSource, logger *common.Logger) (*Server, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	if cfg.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		pools:  pools,
		logger: logger.WithComponent("http"),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), RequestLogger(s.logger))
	if len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"*"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
		// cors.New panics on a bad origin
		if err := corsCfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid CORS_ORIGINS: %w", err)
		}
		s.engine.Use(cors.New(corsCfg))
	}

	tmpl, err := loadTemplates(viewsDir(cfg))
	if err != nil {
		return nil, err
	}
	s.engine.SetHTMLTemplate(tmpl)

	if dir := staticDir(cfg); dirExists(dir) {
		s.engine.Static("/static", dir)
	} else {
		s.logger.Warn("static directory not found, /static disabled", "dir", dir)
	}

	s.engine.GET("/", s.handleHome)
	s.engine.GET("/health", s.handleHealth)
	return s, nil
}

// Handler exposes the engine for tests and custom listeners
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on cfg.Addr() until ctx is cancelled, then shuts down within
// the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", srv.Addr, "app", s.cfg.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = constants.ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func viewsDir(cfg config.AppConfig) string {
	if cfg.ViewsDir == "" {
		return constants.DefaultViewsDir
	}
	return cfg.ViewsDir
}

func staticDir(cfg config.AppConfig) string {
	if cfg.StaticDir == "" {
		return constants.DefaultStatic
	}
	return cfg.StaticDir
}

func loadTemplates(dir string) (*template.Template, error) {
	tmpl, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates from %s: %w", dir, err)
	}
	return tmpl, nil
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
