package middleware

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/eaglebank/console/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "userId"
	ctxAccess = "access"
)

var (
	jwtSecretOnce sync.Once
	jwtSecretVal  []byte
)

func jwtSecret() []byte {
	jwtSecretOnce.Do(func() {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			panic("JWT_SECRET environment variable is not set")
		}
		jwtSecretVal = []byte(secret)
	})
	return jwtSecretVal
}

// MustInitJWTSecret fails fast at startup instead of on the first request.
func MustInitJWTSecret() {
	_ = jwtSecret()
}

type Claims struct {
	UserID string `json:"userId"`
	Access int    `json:"access"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the principal in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithStatus(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithStatus(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return jwtSecret(), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid || claims.UserID == "" {
			RespondWithStatus(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		SetPrincipal(c, models.Principal{UserID: claims.UserID, Access: claims.Access})
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(ctxUserID, p.UserID)
	c.Set(ctxAccess, p.Access)
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", false
	}
	s, ok := userID.(string)
	return s, ok
}

// GetPrincipal returns the caller stored by one of the auth middlewares.
// A missing access value is treated as restricted, never as admin.
func GetPrincipal(c *gin.Context) models.Principal {
	userID, _ := GetUserID(c)
	access := -1
	if v, ok := c.Get(ctxAccess); ok {
		if a, ok := v.(int); ok {
			access = a
		}
	}
	return models.Principal{UserID: userID, Access: access}
}
