package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"speakai-platform/internal/agents"
	"speakai-platform/internal/analytics"
	"speakai-platform/internal/audit"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/batch"
	"speakai-platform/internal/config"
	"speakai-platform/internal/convai"
	"speakai-platform/internal/httpapi"
	"speakai-platform/internal/ratelimit"
	"speakai-platform/internal/storage"
	"speakai-platform/internal/telephony"
	"speakai-platform/internal/users"
	"speakai-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type services struct {
	handlers httpapi.Handlers
	authMW   gin.HandlerFunc
}

// buildServices constructs provider clients and domain services. Missing provider
// credentials fail startup rather than the first request.
func buildServices(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client) (services, error) {
	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return services{}, fmt.Errorf("auth: %w", err)
	}
	loginLimiter, err := ratelimit.NewFixedWindowLimiter(rdb, "speakai:login", cfg.Auth.LoginAttemptsPerMinute, time.Minute)
	if err != nil {
		return services{}, fmt.Errorf("login limiter: %w", err)
	}
	convaiClient, err := convai.NewClient(cfg.ElevenLabs, cfg.Provisioning.StepTimeout)
	if err != nil {
		return services{}, err
	}
	twilio, err := telephony.NewTwilioProvider(cfg.Twilio, cfg.Provisioning.StepTimeout)
	if err != nil {
		return services{}, err
	}
	store, err := storage.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		return services{}, fmt.Errorf("object storage: %w", err)
	}

	userSvc := users.NewService(users.NewSQLRepo(db), authManager, loginLimiter)
	auditSvc := audit.NewService(audit.NewSQLRepo(db))

	agentSvc := agents.NewService(agents.Deps{
		Repo:        agents.NewSQLRepo(db),
		Agents:      convaiClient,
		Numbers:     twilio,
		Store:       store,
		Owners:      userSvc,
		Audit:       auditSvc,
		Cap:         agents.NewRedisCap(rdb, cfg.Provisioning.MaxConcurrentPerUser, agents.LeaseTTL(cfg.Provisioning.StepTimeout)),
		StepTimeout: cfg.Provisioning.StepTimeout,
	})
	batchSvc := batch.NewService(batch.NewSQLRepo(db), convaiClient, agentSvc, auditSvc, cfg.ScheduleLocation())
	analyticsSvc := analytics.NewService(twilio, agentSvc)

	return services{
		handlers: httpapi.Handlers{
			Users:     userSvc,
			Agents:    agentSvc,
			Batch:     batchSvc,
			Analytics: analyticsSvc,
		},
		authMW: auth.RequireAccessToken(authManager, userSvc),
	}, nil
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, s services, db *sql.DB, rdb *redis.Client) {
	r.GET("/readyz", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "postgres"})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpapi.Register(r, s.handlers, s.authMW)
}
