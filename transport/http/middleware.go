package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/service"
)

// principalKey is the gin context key the verified principal is stored
// under.
const principalKey = "walletbridge.principal"

// PrincipalFrom returns the principal the gate attached to the request.
func PrincipalFrom(c *gin.Context) (*core.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*core.Principal)
	return p, ok
}

// bearerToken extracts the token from the Authorization header. An absent
// or malformed header yields an empty token, which the service treats as
// Missing.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// Authenticate validates the presented session token and attaches the
// verified principal to the request context. Every authentication failure
// maps to a typed 401 with a machine-readable reason code; an
// infrastructure fault maps to 503 instead of being disguised as a denial.
func Authenticate(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			if rej, ok := core.AsRejection(err); ok {
				abortWithRejection(c, rej)
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Authentication unavailable",
			})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuthenticate attempts authentication but proceeds unauthenticated
// on any rejection. Used for endpoints with mixed public/private behavior.
// An infrastructure fault still maps to 503; a store outage must not read
// as "logged out".
func OptionalAuthenticate(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			principal, err := auth.Authenticate(c.Request.Context(), token)
			if err == nil {
				c.Set(principalKey, principal)
			} else if _, ok := core.AsRejection(err); !ok {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error": "Authentication unavailable",
				})
				return
			}
		}
		c.Next()
	}
}

// RequireAdmin admits only principals with the admin flag. Composes on top
// of Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortWithRejection(c, core.Reject(core.RejectMissing, nil))
			return
		}
		if !principal.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
				"code":  core.RejectForbidden.Code(),
			})
			return
		}
		c.Next()
	}
}

// RequireWhitelist admits only whitelisted principals. Composes on top of
// Authenticate.
func RequireWhitelist() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortWithRejection(c, core.Reject(core.RejectMissing, nil))
			return
		}
		if !principal.IsWhitelisted {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Whitelist access required",
				"code":  core.RejectForbidden.Code(),
			})
			return
		}
		c.Next()
	}
}

// RequireOwnership admits the principal whose ID matches the named path
// parameter, or any admin. Composes on top of Authenticate.
func RequireOwnership(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abortWithRejection(c, core.Reject(core.RejectMissing, nil))
			return
		}
		owner := c.Param(param)
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Resource ID required",
			})
			return
		}
		if !principal.IsAdmin && principal.ID != owner {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied",
				"code":  core.RejectForbidden.Code(),
			})
			return
		}
		c.Next()
	}
}

func abortWithRejection(c *gin.Context, rej *core.Rejection) {
	var msg string
	switch rej.Kind {
	case core.RejectMissing:
		msg = "Access token required"
	case core.RejectExpired:
		msg = "Token expired"
	default:
		// Invalid and PrincipalGone share one message so a probe cannot
		// tell a deleted principal from a forged token.
		msg = "Invalid token"
	}

	status := http.StatusUnauthorized
	if rej.Kind == core.RejectForbidden {
		status = http.StatusForbidden
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": msg,
		"code":  rej.Kind.Code(),
	})
}
