package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RequireRole is a middleware that checks if the user has the required role.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get user info from context (set by OAuth2Auth middleware)
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		role, exists := c.Get("userRole")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "User role not found in token"})
			c.Abort()
			return
		}

		userRole, ok := role.(string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid role format"})
			c.Abort()
			return
		}

		if userRole != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"required_role": requiredRole,
				"user_role":     userRole,
				"user_id":       userID,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireBranchAccess restricts branch-scoped staff accounts to their own
// branch. The branch is taken from the named URL parameter; admins and
// head-office accounts (no branch claim) pass through unrestricted.
func RequireBranchAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("userRole"); role == "admin" {
			c.Next()
			return
		}

		claimed, exists := c.Get("branchID")
		if !exists {
			c.Next()
			return
		}

		requested, err := strconv.ParseUint(c.Param(param), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch identifier"})
			c.Abort()
			return
		}

		if branchID, ok := claimed.(uint); ok && branchID != uint(requested) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":            "Branch access denied",
				"requested_branch": requested,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
