package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"speakai-platform/internal/agents"
	"speakai-platform/internal/analytics"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/batch"
	"speakai-platform/internal/telephony"
	"speakai-platform/internal/users"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Users     UserService
	Agents    AgentService
	Batch     BatchService
	Analytics AnalyticsService
}

type UserService interface {
	Signup(ctx context.Context, req users.SignupRequest) (users.User, error)
	Login(ctx context.Context, email, password, clientIP string) (users.LoginResult, error)
	Me(ctx context.Context, email string) (users.User, error)
	ChangePassword(ctx context.Context, userID int64, req users.ChangePasswordRequest) error
}

type AgentService interface {
	Create(ctx context.Context, caller auth.Identity, req agents.CreateRequest) (agents.CreateResult, error)
	Update(ctx context.Context, caller auth.Identity, req agents.UpdateRequest) (agents.UpdateResult, error)
	Delete(ctx context.Context, caller auth.Identity, id int64) (agents.CleanupReport, error)
	Get(ctx context.Context, caller auth.Identity, id int64) (agents.Agent, error)
	List(ctx context.Context, caller auth.Identity) ([]agents.Agent, error)
	Pause(ctx context.Context, caller auth.Identity, id int64) (agents.LinkResult, error)
	Resume(ctx context.Context, caller auth.Identity, id int64) (agents.LinkResult, error)
}

type BatchService interface {
	Submit(ctx context.Context, caller auth.Identity, req batch.SubmitRequest) (batch.SubmitResult, error)
	Status(ctx context.Context, caller auth.Identity, callName string) (batch.StatusResult, error)
	Cancel(ctx context.Context, caller auth.Identity, callName string) (batch.StatusResult, error)
	Retry(ctx context.Context, caller auth.Identity, callName string) (batch.StatusResult, error)
	List(ctx context.Context, caller auth.Identity) ([]batch.Job, error)
}

type AnalyticsService interface {
	PhoneDetails(ctx context.Context, number string) (telephony.IncomingNumber, error)
	NumberUsage(ctx context.Context, number string) (analytics.UsageReport, error)
	MultipleNumbers(ctx context.Context, req analytics.MultipleNumbersRequest) (analytics.MultipleNumbersReport, error)
	CallAnalytics(ctx context.Context, req analytics.CallAnalyticsRequest) (analytics.CallAnalytics, error)
	Dashboard(ctx context.Context, caller auth.Identity) (analytics.Dashboard, error)
	AgentAnalytics(ctx context.Context, caller auth.Identity, id int64) (analytics.AgentAnalytics, error)
}

// Healthz reports process liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// caller returns the identity injected by auth.RequireAccessToken, aborting with 401 when absent.
func caller(c *gin.Context) (auth.Identity, bool) {
	id, err := auth.FromContext(c.Request.Context())
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return auth.Identity{}, false
	}
	return id, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
