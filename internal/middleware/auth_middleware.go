// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"print-bridge/internal/config"
	"print-bridge/internal/utils"
)

// AuthMiddleware checks an HS256 bearer token when auth is enabled.
// With auth disabled every request passes, as on a trusted shop LAN.
func AuthMiddleware(cfg *config.SecurityConfig, logger *utils.SecurityLogger) gin.HandlerFunc {
	if !cfg.AuthEnabled {
		return func(c *gin.Context) { c.Next() }
	}

	secret := []byte(cfg.JWTSecret)
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			logger.LogAuthAttempt(c.ClientIP(), c.Request.UserAgent(), false, "missing token")
			utils.AbortWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := validateToken(token, secret)
		if err != nil {
			logger.LogAuthAttempt(c.ClientIP(), c.Request.UserAgent(), false, err.Error())
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		logger.LogAuthAttempt(c.ClientIP(), c.Request.UserAgent(), true, "")
		c.Set("claims", claims)
		c.Next()
	}
}

func validateToken(tokenString string, secret []byte) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// bearerToken reads the Authorization header, or the token query parameter
// for websocket clients that cannot set headers
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}
