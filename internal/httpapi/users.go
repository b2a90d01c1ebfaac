package httpapi

import (
	"net/http"

	"speakai-platform/internal/users"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Signup(c *gin.Context) {
	var req users.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User created successfully", "user": u})
}

// Login exchanges email and password for a bearer token.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	res, err := h.Users.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		if status, _ := classify(err); status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) Me(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	u, err := h.Users.Me(c.Request.Context(), id.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handlers) ChangePassword(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req users.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), id.UserID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
