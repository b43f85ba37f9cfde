package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/auth"
	"github.com/eventease-dev/eventease/internal/middleware"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 20
)

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
}

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	NewPassword2    string `json:"new_password2" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateNewPassword returns a user-facing message, or "" when acceptable.
func validateNewPassword(password, confirm string) string {
	if len(password) < auth.MinPasswordLength {
		return "Password must be at least 8 characters long"
	}
	if password != confirm {
		return "Passwords must match"
	}
	return ""
}

func (h *Handler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.Config.Domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	username := strings.TrimSpace(body.Username)
	email := normalizeEmail(body.Email)

	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username must be between 3 and 20 characters"})
		return
	}

	if msg := validateNewPassword(body.Password, body.Password2); msg != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var count int64

	if err := h.DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		h.internalError(ctx, "Failed to register user", err)
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	}

	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		h.internalError(ctx, "Failed to register user", err)
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)

	if err != nil {
		h.internalError(ctx, "Failed to register user", err)
		return
	}

	token, err := auth.NewURLToken()

	if err != nil {
		h.internalError(ctx, "Failed to register user", err)
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Language:     models.DefaultLanguage,
	}
	user.SetEmailVerificationToken(token, h.now())

	if err := h.DB.Create(&user).Error; err != nil {
		h.internalError(ctx, "Failed to register user", err)
		return
	}

	h.Mailer.SendVerification(&user, token)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Please check your email to verify your account before logging in.",
		"user":    types.NewUserResponse(&user),
	})
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	err := h.DB.Where("email = ?", normalizeEmail(body.Email)).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		h.internalError(ctx, "Failed to log in", err)
		return
	}

	if !user.EmailVerified {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email address before logging in. Check your email for verification link."})
		return
	}

	now := h.now()

	if user.IsAccountLocked(now) {
		ctx.JSON(http.StatusLocked, gin.H{
			"error":        "Account temporarily locked due to multiple failed login attempts. Please try again later.",
			"locked_until": user.AccountLockedUntil,
		})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, body.Password) {
		user.IncrementFailedLogin(now)

		if err := h.DB.Model(&user).Updates(map[string]interface{}{
			"failed_login_attempts": user.FailedLoginAttempts,
			"account_locked_until":  user.AccountLockedUntil,
		}).Error; err != nil {
			h.internalError(ctx, "Failed to log in", err)
			return
		}

		if user.IsAccountLocked(now) {
			ctx.JSON(http.StatusLocked, gin.H{
				"error":        "Account locked due to multiple failed attempts. Please try again in 15 minutes.",
				"locked_until": user.AccountLockedUntil,
			})
			return
		}

		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":              "Invalid email or password",
			"attempts_remaining": user.AttemptsRemaining(),
		})
		return
	}

	user.ResetFailedLoginAttempts(now)

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"account_locked_until":  nil,
		"last_login":            user.LastLogin,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to log in", err)
		return
	}

	ttl := auth.SessionTTL
	if body.RememberMe {
		ttl = auth.RememberMeTTL
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, ttl)

	if err != nil {
		h.internalError(ctx, "Failed to log in", err)
		return
	}

	h.setTokenCookie(ctx, token, int(ttl/time.Second))

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Welcome back, " + user.Username + "!",
		"token":   token,
		"user":    types.NewUserResponse(&user),
	})
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "You have been logged out successfully."})
}

func (h *Handler) Me(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": types.NewUserResponse(user)})
}

// currentUser loads the full row for the authenticated caller.
func (h *Handler) currentUser(ctx *gin.Context) (*models.User, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	var user models.User

	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		} else {
			h.internalError(ctx, "Failed to load user", err)
		}
		return nil, false
	}

	return &user, true
}

func (h *Handler) RequestPasswordReset(ctx *gin.Context) {
	var body EmailRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	const message = "If an account with that email exists and is verified, a password reset link has been sent."

	var user models.User

	err := h.DB.Where("email = ?", normalizeEmail(body.Email)).First(&user).Error

	if err != nil || !user.EmailVerified {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.Logger.Error("Failed to look up user for password reset", zap.Error(err))
		}
		ctx.JSON(http.StatusOK, gin.H{"message": message})
		return
	}

	token, err := auth.NewURLToken()

	if err != nil {
		h.internalError(ctx, "Failed to request password reset", err)
		return
	}

	user.SetResetToken(token, h.now())

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"reset_token":        user.ResetToken,
		"reset_token_expiry": user.ResetTokenExpiry,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to request password reset", err)
		return
	}

	h.Mailer.SendPasswordReset(&user, token)

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handler) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")

	var body ResetPasswordRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	err := h.DB.Where("reset_token = ?", token).First(&user).Error

	if err != nil || !user.VerifyResetToken(token, h.now()) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.internalError(ctx, "Failed to reset password", err)
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token."})
		return
	}

	if msg := validateNewPassword(body.Password, body.Password2); msg != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)

	if err != nil {
		h.internalError(ctx, "Failed to reset password", err)
		return
	}

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"password_hash":         passwordHash,
		"reset_token":           nil,
		"reset_token_expiry":    nil,
		"failed_login_attempts": 0,
		"account_locked_until":  nil,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to reset password", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Your password has been reset successfully."})
}

func (h *Handler) ChangePassword(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body ChangePasswordRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, body.CurrentPassword) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect."})
		return
	}

	if msg := validateNewPassword(body.NewPassword, body.NewPassword2); msg != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	passwordHash, err := auth.HashPassword(body.NewPassword)

	if err != nil {
		h.internalError(ctx, "Failed to change password", err)
		return
	}

	if err := h.DB.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		h.internalError(ctx, "Failed to change password", err)
		return
	}

	h.Mailer.SendPasswordChanged(user)

	ctx.JSON(http.StatusOK, gin.H{"message": "Your password has been changed successfully."})
}

func (h *Handler) AccountStatus(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"last_login":         user.LastLogin,
		"failed_attempts":    user.FailedLoginAttempts,
		"attempts_remaining": user.AttemptsRemaining(),
		"account_locked":     user.IsAccountLocked(h.now()),
		"locked_until":       user.AccountLockedUntil,
		"email_verified":     user.EmailVerified,
	})
}

func (h *Handler) VerifyEmail(ctx *gin.Context) {
	token := ctx.Param("token")

	var user models.User

	err := h.DB.Where("email_verification_token = ?", token).First(&user).Error

	if err != nil || !user.VerifyEmailVerificationToken(token, h.now()) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.internalError(ctx, "Failed to verify email", err)
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired verification token."})
		return
	}

	user.VerifyEmail()

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"email_verified":                  true,
		"email_verification_token":        nil,
		"email_verification_token_expiry": nil,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to verify email", err)
		return
	}

	h.Mailer.SendWelcome(&user)

	ctx.JSON(http.StatusOK, gin.H{"message": "Email verified successfully! You can now log in to your account."})
}

func (h *Handler) ResendVerification(ctx *gin.Context) {
	var body EmailRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	const message = "If an unverified account with that email exists, a verification email has been sent."

	var user models.User

	err := h.DB.Where("email = ?", normalizeEmail(body.Email)).First(&user).Error

	if err != nil || user.EmailVerified {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.Logger.Error("Failed to look up user for verification", zap.Error(err))
		}
		ctx.JSON(http.StatusOK, gin.H{"message": message})
		return
	}

	token, err := auth.NewURLToken()

	if err != nil {
		h.internalError(ctx, "Failed to resend verification", err)
		return
	}

	user.SetEmailVerificationToken(token, h.now())

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"email_verification_token":        user.EmailVerificationToken,
		"email_verification_token_expiry": user.EmailVerificationTokenExpiry,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to resend verification", err)
		return
	}

	h.Mailer.SendVerification(&user, token)

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}
