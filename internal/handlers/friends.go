package handlers

import (
	"errors"
	"net/http"

	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FriendRequest struct {
	Email string `json:"email"`
}

// loadFriends returns the users the given user has added.
func loadFriends(tx *gorm.DB, userID uint) ([]models.User, error) {
	var friends []models.User

	err := tx.Model(&models.User{BaseModel: models.BaseModel{ID: userID}}).
		Order("username ASC").
		Association("Friends").
		Find(&friends)

	return friends, err
}

func isFriend(tx *gorm.DB, userID, friendID uint) (bool, error) {
	var count int64

	err := tx.Table("friendships").
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error

	return count > 0, err
}

func (h *Handler) ListFriends(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	friends, err := loadFriends(h.DB, userID)

	if err != nil {
		h.internalError(ctx, "Failed to load friends", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"friends": types.NewFriendResponses(friends)})
}

// friendTarget resolves the request body to the caller and the other user.
func (h *Handler) friendTarget(ctx *gin.Context) (*models.User, *models.User, bool) {
	var body FriendRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || normalizeEmail(body.Email) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return nil, nil, false
	}

	user, ok := h.currentUser(ctx)

	if !ok {
		return nil, nil, false
	}

	var friend models.User

	if err := h.DB.Where("email = ?", normalizeEmail(body.Email)).First(&friend).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			h.internalError(ctx, "Failed to look up user", err)
		}
		return nil, nil, false
	}

	if friend.ID == user.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot add yourself as a friend"})
		return nil, nil, false
	}

	return user, &friend, true
}

func (h *Handler) AddFriend(ctx *gin.Context) {
	user, friend, ok := h.friendTarget(ctx)

	if !ok {
		return
	}

	already, err := isFriend(h.DB, user.ID, friend.ID)

	if err != nil {
		h.internalError(ctx, "Failed to add friend", err)
		return
	}

	if already {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already your friend"})
		return
	}

	if err := h.DB.Model(user).Association("Friends").Append(friend); err != nil {
		h.internalError(ctx, "Failed to add friend", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Friend added successfully"})
}

func (h *Handler) RemoveFriend(ctx *gin.Context) {
	user, friend, ok := h.friendTarget(ctx)

	if !ok {
		return
	}

	already, err := isFriend(h.DB, user.ID, friend.ID)

	if err != nil {
		h.internalError(ctx, "Failed to remove friend", err)
		return
	}

	if !already {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is not your friend"})
		return
	}

	if err := h.DB.Model(user).Association("Friends").Delete(friend); err != nil {
		h.internalError(ctx, "Failed to remove friend", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Friend removed successfully"})
}
