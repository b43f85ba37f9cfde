package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/imaging"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) GetProfile(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": types.NewUserResponse(user)})
}

// UpdateProfile accepts a multipart form with username, email, language and
// an optional profile_picture.
func (h *Handler) UpdateProfile(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	username := strings.TrimSpace(ctx.PostForm("username"))
	email := normalizeEmail(ctx.PostForm("email"))
	language := strings.TrimSpace(ctx.PostForm("language"))

	if username == "" || email == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username and email are required"})
		return
	}

	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username must be between 3 and 20 characters"})
		return
	}

	var count int64

	if username != user.Username {
		if err := h.DB.Model(&models.User{}).Where("username = ? AND id <> ?", username, user.ID).Count(&count).Error; err != nil {
			h.internalError(ctx, "Failed to update profile", err)
			return
		}
		if count > 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
			return
		}
	}

	if email != user.Email {
		if err := h.DB.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			h.internalError(ctx, "Failed to update profile", err)
			return
		}
		if count > 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
	}

	updates := map[string]interface{}{
		"username": username,
		"email":    email,
	}
	if language != "" {
		updates["language"] = language
	}

	data, filename, err := h.readUpload(ctx, "profile_picture")
	oldPicture := user.ProfilePicture

	switch {
	case errors.Is(err, http.ErrMissingFile):
	case errors.Is(err, errUploadTooLarge):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Profile picture is too large"})
		return
	case err != nil:
		h.internalError(ctx, "Failed to read profile picture", err)
		return
	default:
		if !imaging.AllowedFile(filename) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed. Please upload a png, jpg or jpeg image."})
			return
		}

		if _, _, err := imaging.Decode(data); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "The uploaded file is not a valid image"})
			return
		}

		rel, err := h.Images.Save(imaging.ProfilePicturesDir, imaging.Extension(filename), data)

		if err != nil {
			h.internalError(ctx, "Failed to save profile picture", err)
			return
		}

		updates["profile_picture"] = rel
	}

	if err := h.DB.Model(user).Updates(updates).Error; err != nil {
		if rel, ok := updates["profile_picture"].(string); ok {
			_ = h.Images.Delete(rel)
		}
		h.internalError(ctx, "Failed to update profile", err)
		return
	}

	if _, replaced := updates["profile_picture"]; replaced && oldPicture != nil {
		if err := h.Images.Delete(*oldPicture); err != nil {
			h.Logger.Warn("Failed to delete old profile picture", zap.String("path", *oldPicture), zap.Error(err))
		}
	}

	if err := h.DB.First(user, user.ID).Error; err != nil {
		h.internalError(ctx, "Failed to load profile", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Your profile has been updated!",
		"user":    types.NewUserResponse(user),
	})
}
