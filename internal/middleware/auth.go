package middleware

import (
	"net/http"
	"strings"

	"github.com/eventease-dev/eventease/internal/auth"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthenticatedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenCookieName is the HttpOnly cookie set on login.
const TokenCookieName = "token"

// AuthMiddleware rejects requests without a valid session token.
func AuthMiddleware(database *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, errMsg := extractToken(ctx)

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			return
		}

		user, ok := loadUser(database, tokenString)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid token is present
// and lets anonymous requests through otherwise.
func OptionalAuthMiddleware(database *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString, _ := extractToken(ctx); tokenString != "" {
			if user, ok := loadUser(database, tokenString); ok {
				ctx.Set(types.ContextUserKey, user)
			}
		}
		ctx.Next()
	}
}

// extractToken prefers the Authorization header and falls back to the cookie.
func extractToken(ctx *gin.Context) (string, string) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", "Authorization header format must be Bearer {token}"
		}

		return parts[1], ""
	}

	if cookie, err := ctx.Cookie(TokenCookieName); err == nil && cookie != "" {
		return cookie, ""
	}

	return "", "Authorization token is required"
}

func loadUser(database *gorm.DB, tokenString string) (AuthenticatedUser, bool) {
	claims, err := auth.VerifyJWT(tokenString)

	if err != nil {
		return AuthenticatedUser{}, false
	}

	var user models.User

	if err := database.Select("id", "username", "email").Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		return AuthenticatedUser{}, false
	}

	return AuthenticatedUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, true
}
