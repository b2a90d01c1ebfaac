package httpapi

import (
	"net/http"
	"strings"

	"speakai-platform/internal/analytics"

	"github.com/gin-gonic/gin"
)

type phoneNumberRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type multipleNumbersRequest struct {
	PhoneNumbers          []string `json:"phone_numbers"`
	IncludeRecentCalls    *bool    `json:"include_recent_calls"`
	IncludeRecentMessages *bool    `json:"include_recent_messages"`
}

type agentAnalyticsRequest struct {
	AgentID int64 `json:"agent_id"`
}

func (h Handlers) PhoneDetails(c *gin.Context) {
	number, ok := bindPhoneNumber(c)
	if !ok {
		return
	}
	res, err := h.Analytics.PhoneDetails(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) PhoneUsage(c *gin.Context) {
	number, ok := bindPhoneNumber(c)
	if !ok {
		return
	}
	res, err := h.Analytics.NumberUsage(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MultipleNumbersAnalytics includes recent calls and messages unless the body turns them off.
func (h Handlers) MultipleNumbersAnalytics(c *gin.Context) {
	if _, ok := caller(c); !ok {
		return
	}
	var req multipleNumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	res, err := h.Analytics.MultipleNumbers(c.Request.Context(), analytics.MultipleNumbersRequest{
		PhoneNumbers:          req.PhoneNumbers,
		IncludeRecentCalls:    boolOr(req.IncludeRecentCalls, true),
		IncludeRecentMessages: boolOr(req.IncludeRecentMessages, true),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) CallAnalytics(c *gin.Context) {
	if _, ok := caller(c); !ok {
		return
	}
	var req analytics.CallAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	res, err := h.Analytics.CallAnalytics(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) DashboardAnalytics(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	res, err := h.Analytics.Dashboard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) AgentAnalytics(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req agentAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.AgentID <= 0 {
		badRequest(c, "agent_id is required")
		return
	}
	res, err := h.Analytics.AgentAnalytics(c.Request.Context(), id, req.AgentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bindPhoneNumber(c *gin.Context) (string, bool) {
	if _, ok := caller(c); !ok {
		return "", false
	}
	var req phoneNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return "", false
	}
	n := strings.TrimSpace(req.PhoneNumber)
	if n == "" {
		badRequest(c, "phone_number is required")
		return "", false
	}
	return n, true
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
