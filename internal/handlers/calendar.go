package handlers

import (
	"net/http"

	"github.com/eventease-dev/eventease/internal/calendar"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
)

// Calendar exports the caller's assigned, dated tasks as an .ics file.
func (h *Handler) Calendar(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var tasks []models.Task

	assigned := h.DB.Table("task_assignments").Select("task_id").Where("user_id = ?", userID)

	err = h.DB.Preload("Event").
		Where("id IN (?) AND due_date IS NOT NULL", assigned).
		Order("due_date ASC").
		Find(&tasks).Error

	if err != nil {
		h.internalError(ctx, "Failed to load tasks", err)
		return
	}

	body := calendar.Render(tasks, h.Config.Domain, h.now())

	ctx.Header("Content-Disposition", "attachment; filename="+calendar.FileName)
	ctx.Data(http.StatusOK, calendar.ContentType, []byte(body))
}
