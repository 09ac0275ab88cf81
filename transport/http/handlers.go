package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/service"
)

// AuthHandlers contains HTTP handlers for the wallet session endpoints.
type AuthHandlers struct {
	auth *service.AuthService
	log  logrus.FieldLogger
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(auth *service.AuthService, log logrus.FieldLogger) *AuthHandlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthHandlers{auth: auth, log: log}
}

// FlowConnect handles the wallet exchange. 201 when a principal was
// provisioned, 200 on reconnect.
func (h *AuthHandlers) FlowConnect(c *gin.Context) {
	var req struct {
		FlowWalletAddress string `json:"flowWalletAddress" binding:"required"`
		Username          string `json:"username"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.auth.Exchange(c.Request.Context(), req.FlowWalletAddress, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress), errors.Is(err, core.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Validation failed",
				"message": err.Error(),
			})
		default:
			h.log.WithError(err).Error("wallet exchange failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect wallet"})
		}
		return
	}

	status := http.StatusOK
	message := "Wallet connected successfully"
	if result.Created {
		status = http.StatusCreated
		message = "User created and wallet connected successfully"
	}

	c.JSON(status, gin.H{
		"message": message,
		"user":    result.Principal,
		"token":   result.Token,
	})
}

// Me returns the authenticated principal.
func (h *AuthHandlers) Me(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": principal})
}

// UpdateProfile applies a partial edit to the caller's own profile.
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	var req struct {
		Username     *string `json:"username"`
		Email        *string `json:"email"`
		Bio          *string `json:"bio"`
		ProfileImage *string `json:"profileImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), principal.ID, core.ProfileUpdate{
		Username:     req.Username,
		Email:        req.Email,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		h.respondUpdateError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

// UpdatePreferences applies a partial edit to the caller's preferences.
func (h *AuthHandlers) UpdatePreferences(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	var req struct {
		Theme         *core.Theme `json:"theme"`
		Notifications *struct {
			Email *bool `json:"email"`
			Push  *bool `json:"push"`
		} `json:"notifications"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	upd := core.PreferencesUpdate{Theme: req.Theme}
	if req.Notifications != nil {
		upd.NotifyEmail = req.Notifications.Email
		upd.NotifyPush = req.Notifications.Push
	}

	updated, err := h.auth.UpdatePreferences(c.Request.Context(), principal.ID, upd)
	if err != nil {
		h.respondUpdateError(c, err, "Failed to update preferences")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Preferences updated successfully",
		"preferences": updated.Preferences,
	})
}

// Logout records the end of the caller's session.
func (h *AuthHandlers) Logout(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), principal); err != nil {
		h.log.WithError(err).Error("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// WalletByAddress is the public profile lookup.
func (h *AuthHandlers) WalletByAddress(c *gin.Context) {
	principal, err := h.auth.LookupWallet(c.Request.Context(), c.Param("address"))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Flow wallet address"})
		case errors.Is(err, core.ErrPrincipalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.log.WithError(err).Error("wallet lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": principal.Public()})
}

// AdminUsers lists all principals. Admin only.
func (h *AuthHandlers) AdminUsers(c *gin.Context) {
	users, err := h.auth.ListPrincipals(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("admin user list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// AdminWhitelist updates a principal's whitelist flag. Admin only.
func (h *AuthHandlers) AdminWhitelist(c *gin.Context) {
	var req struct {
		IsWhitelisted *bool `json:"isWhitelisted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isWhitelisted must be a boolean"})
		return
	}

	user, err := h.auth.SetWhitelisted(c.Request.Context(), c.Param("userId"), *req.IsWhitelisted)
	if err != nil {
		if errors.Is(err, core.ErrPrincipalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.WithError(err).Error("whitelist update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update whitelist status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User whitelist status updated successfully",
		"user":    user,
	})
}

// Health reports liveness and backing-store connectivity.
func (h *AuthHandlers) Health(c *gin.Context) {
	if err := h.auth.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandlers) respondUpdateError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrInvalidUsername),
		errors.Is(err, core.ErrBioTooLong),
		errors.Is(err, core.ErrInvalidTheme):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"message": err.Error(),
		})
	case errors.Is(err, core.ErrPrincipalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		h.log.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
