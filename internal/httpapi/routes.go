package httpapi

import (
	"speakai-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register wires every route. authMW must inject the caller identity.
func Register(r gin.IRouter, h Handlers, authMW gin.HandlerFunc) {
	r.GET("/healthz", Healthz)

	pub := r.Group("/auth")
	{
		pub.POST("/signup", h.Signup)
		pub.POST("/login", h.Login)
	}

	me := r.Group("/auth")
	me.Use(authMW)
	{
		me.GET("/me", h.Me)
		me.PUT("/change-password", h.ChangePassword)
	}

	agent := r.Group("/auth/agent")
	agent.Use(authMW, rbac.RequireAnyRole(rbac.RoleAdmin))
	{
		agent.POST("/create-agent", h.CreateAgent)
		agent.PUT("/update-agent", h.UpdateAgent)
		agent.DELETE("/delete-agent/:id", h.DeleteAgent)
		agent.PATCH("/pause-twilio-number/:id", h.PauseNumber)
		agent.PATCH("/resume-twilio-number/:id", h.ResumeNumber)
		agent.GET("/agents", h.ListAgents)
		agent.GET("/agents/:id", h.GetAgent)

		agent.POST("/batch-calling", h.SubmitBatch)
		agent.GET("/batch-calling/status/:call_name", h.BatchStatus)
		agent.POST("/batch-calling/cancel/:call_name", h.CancelBatch)
		agent.POST("/batch-calling/retry/:call_name", h.RetryBatch)
		agent.GET("/batch-calling/list", h.ListBatches)
	}

	analysis := r.Group("/analysis")
	analysis.Use(authMW, rbac.RequireAnyRole(rbac.RoleAdmin))
	{
		analysis.POST("/phone-details", h.PhoneDetails)
		analysis.POST("/phone-usage", h.PhoneUsage)
		analysis.POST("/twilio-multiple-numbers-analytics", h.MultipleNumbersAnalytics)
		analysis.POST("/call-analytics", h.CallAnalytics)
		analysis.POST("/dashboard-analytics", h.DashboardAnalytics)
		analysis.POST("/agent-analytics", h.AgentAnalytics)
	}
}
