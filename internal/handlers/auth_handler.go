package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/auth"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Key string `json:"key" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token   string    `json:"token"`
	Tier    auth.Tier `json:"tier"`
	Message string    `json:"message"`
	// Remote is "reachable", "unreachable" or "unconfigured".
	Remote string `json:"remote"`
}

const (
	remoteReachable    = "reachable"
	remoteUnreachable  = "unreachable"
	remoteUnconfigured = "unconfigured"
)

// Login handles POST /api/login
// It exchanges an access key for a session token carrying the key's tier.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. An access key is required.",
		})
		return
	}

	tier, err := h.keys.Lookup(req.Key)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access key"})
			return
		}
		h.respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(tier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		Tier:    tier,
		Message: "Login successful",
		Remote:  h.remoteState(c.Request.Context()),
	})
}

// remoteState pings the remote API. A failed ping does not block the login,
// the dashboard then runs on the local backup.
func (h *Handler) remoteState(ctx context.Context) string {
	if h.remote == nil {
		return remoteUnconfigured
	}
	if err := h.remote.Ping(ctx); err != nil {
		h.logger.Warningf("remote ping failed: %s", err)
		return remoteUnreachable
	}
	return remoteReachable
}
