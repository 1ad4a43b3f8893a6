package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves GET /health. It only proves the process answers.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Liveness
//
// @Summary      Liveness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// DependencyCheck is one readiness dependency. A nil Ping reports it as
// disabled, which never fails readiness.
type DependencyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// MongoCheck pings the audit database when one is configured.
func MongoCheck(db *mongo.Database) DependencyCheck {
	check := DependencyCheck{Name: "mongodb"}
	if db != nil {
		check.Ping = func(ctx context.Context) error {
			return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		}
	}
	return check
}

// RedisCheck pings the session storage when it lives in redis.
func RedisCheck(rdb *redis.Client) DependencyCheck {
	check := DependencyCheck{Name: "redis"}
	if rdb != nil {
		check.Ping = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return check
}

// ReadinessHandler serves GET /health/ready.
type ReadinessHandler struct {
	checks []DependencyCheck
}

func NewReadinessHandler(checks ...DependencyCheck) *ReadinessHandler {
	return &ReadinessHandler{checks: checks}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness
//
// @Summary      Readiness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Dependencies: make(map[string]dependencyStatus, len(h.checks))}
	for _, check := range h.checks {
		if check.Ping == nil {
			resp.Dependencies[check.Name] = dependencyStatus{Status: "disabled"}
			continue
		}
		if err := check.Ping(ctx); err != nil {
			resp.Dependencies[check.Name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[check.Name] = dependencyStatus{Status: "ok"}
	}

	if resp.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
