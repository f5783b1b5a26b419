package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	AppMode  string `json:"app_mode"`
}

func (s *Server) handleHome(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{
		"AppName": s.cfg.Name,
		"AppMode": s.cfg.Mode,
	})
}

// handleHealth always answers 200; a database problem shows up as
// "degraded" in the body.
func (s *Server) handleHealth(c *gin.Context) {
	healthy := s.databaseHealthy(c.Request.Context())
	resp := HealthResponse{
		Status:   "healthy",
		Database: "connected",
		AppMode:  s.cfg.Mode,
	}
	if !healthy {
		resp.Status = "degraded"
		resp.Database = "disconnected"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) databaseHealthy(ctx context.Context) bool {
	if s.pools == nil {
		return false
	}
	pool, err := s.pools.Pool()
	if err != nil {
		s.logger.Debug("health check without pool", "error", err)
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	conn, err := pool.Conn(ctx)
	if err != nil {
		s.logger.Warn("database health check failed", "error", err)
		return false
	}
	defer func() { _ = conn.Close() }()

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		s.logger.Warn("database health check failed", "error", err)
		return false
	}
	return one == 1
}
