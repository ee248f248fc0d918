package server

import (
	"net/http"
	"strings"
	"time"

	"auction-service/internal/auctionerrors"
	"auction-service/internal/auth"
	model "auction-service/internal/models"
	handler "auction-service/services/auction/handler"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthMiddleware verifies the Authorization bearer token and stores the
// caller identity in the gin context for the handlers.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "authentication required")
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "invalid or expired token")
			utils.Warn("AuthMiddleware: token rejected", map[string]any{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(handler.IdentityKey, model.UserIdentity{UserID: claims.UserID, Email: claims.Email})
		c.Next()
	}
}
