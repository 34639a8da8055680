package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Conceptual-Machines/tidal-companion/internal/config"
)

const (
	bearerPrefix = "Bearer"
	roleAdmin    = "admin"
)

// Claims carried by admin tokens
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth guards routes that change shared state. With AUTH_MODE=jwt a
// bearer token signed with JWT_SECRET and carrying role "admin" is
// required; any other mode lets every request through.
func AdminAuth(cfg *config.Config) gin.HandlerFunc {
	if !cfg.IsJWTMode() {
		return NoAuth()
	}
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if claims.Role != roleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Set("subject", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("subject", "anonymous")
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == bearerPrefix {
		return parts[1]
	}
	return ""
}

// GetSubject returns the authenticated subject, if any
func GetSubject(c *gin.Context) (string, bool) {
	subject := c.GetString("subject")
	return subject, subject != ""
}
