package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fiscalflow/auth"
)

const (
	ctxOperatorID = "operator_id"
	ctxRole       = "role"
)

// requireAuth validates the bearer token and stashes the operator identity
// on the request context. The operator id becomes the actor recorded in
// audit notes.
func requireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		operatorID, role, err := svc.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Set(ctxOperatorID, operatorID)
		c.Set(ctxRole, string(role))
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return ""
}

func operatorFromContext(c *gin.Context) string {
	return c.GetString(ctxOperatorID)
}
