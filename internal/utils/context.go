package utils

import (
	"fmt"

	"github.com/eventease-dev/eventease/internal/middleware"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// IsAuthenticated reports whether an optional-auth route has a caller.
func IsAuthenticated(ctx *gin.Context) bool {
	_, err := GetCurrentUser(ctx)
	return err == nil
}
