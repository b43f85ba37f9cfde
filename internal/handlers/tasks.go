package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/assistant"
	"github.com/eventease-dev/eventease/internal/imaging"
	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/services"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTaskDescriptionLength = 255
	maxTaskNoteLength        = 500
)

type CreateTaskRequest struct {
	Description string `json:"description"`
	EventID     uint   `json:"event_id"`
	Note        string `json:"note"`
	Item        string `json:"item"`
	Priority    int    `json:"priority"`
	DueDate     string `json:"due_date"`
}

// UpdateTaskRequest fields left nil are not changed.
type UpdateTaskRequest struct {
	Description *string `json:"description"`
	Note        *string `json:"note"`
	Priority    *int    `json:"priority"`
	DueDate     *string `json:"due_date"`
	Item        *string `json:"item"`
}

type CompletionRequest struct {
	Completed *bool `json:"completed"`
}

type BulkCompletionRequest struct {
	TaskIDs []uint `json:"task_ids"`
}

type AssigneesRequest struct {
	UserIDs []uint `json:"user_ids"`
}

type VerifyTaskRequest struct {
	Verified *bool  `json:"verified"`
	Note     string `json:"note"`
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func optionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	date, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// authorizeTaskParam resolves :task_id for the caller. On failure the response has been written.
func (h *Handler) authorizeTaskParam(ctx *gin.Context, action access.Action) (*models.Task, *models.Event, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, nil, 0, false
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, 0, false
	}

	task, event, err := h.authorizeTask(h.DB, taskID, userID, action)

	if err != nil {
		h.accessError(ctx, err)
		return nil, nil, 0, false
	}

	return task, event, userID, true
}

func (h *Handler) completedBy(ctx *gin.Context) string {
	user, err := utils.GetCurrentUser(ctx)
	if err != nil {
		return "Unknown"
	}
	return user.Username
}

// taskCompleted records a task moving from open to done.
func (h *Handler) taskCompleted(ctx *gin.Context, event *models.Event, task models.Task) {
	metrics.Get().TasksCompleted.Inc()
	h.notify(event, services.TaskCompletedNotification(task, h.completedBy(ctx)))
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	description := strings.TrimSpace(body.Description)

	if description == "" || body.EventID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task description and event ID are required"})
		return
	}

	if utf8.RuneCountInString(description) > maxTaskDescriptionLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task description must be at most 255 characters"})
		return
	}

	event, _, err := h.Access.Authorize(h.DB, body.EventID, userID, access.ActionEdit)

	if err != nil {
		h.accessError(ctx, err)
		return
	}

	dueDate, err := optionalDate(body.DueDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	priority := models.PriorityNormal
	if body.Priority != 0 {
		priority = models.ValidPriority(body.Priority)
	}

	note := optionalString(body.Note)
	if note != nil && utf8.RuneCountInString(*note) > maxTaskNoteLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task note must be at most 500 characters"})
		return
	}

	task := models.Task{
		Description: description,
		Note:        note,
		Priority:    priority,
		DueDate:     dueDate,
		EventID:     event.ID,
		Item:        assistant.NormalizeItem(body.Item),
	}

	if err := h.DB.Create(&task).Error; err != nil {
		h.internalError(ctx, "Failed to create task", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    types.NewTaskResponse(&task),
	})
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionEdit)

	if !ok {
		return
	}

	var body UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := map[string]interface{}{}

	if body.Description != nil {
		description := strings.TrimSpace(*body.Description)
		if description == "" || utf8.RuneCountInString(description) > maxTaskDescriptionLength {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task description is required and must be at most 255 characters"})
			return
		}
		updates["description"] = description
	}

	if body.Note != nil {
		note := optionalString(*body.Note)
		if note != nil && utf8.RuneCountInString(*note) > maxTaskNoteLength {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task note must be at most 500 characters"})
			return
		}
		updates["note"] = note
	}

	if body.Priority != nil {
		updates["priority"] = models.ValidPriority(*body.Priority)
	}

	if body.DueDate != nil {
		dueDate, err := optionalDate(*body.DueDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
			return
		}
		updates["due_date"] = dueDate
	}

	if body.Item != nil {
		updates["item"] = assistant.NormalizeItem(*body.Item)
	}

	if len(updates) > 0 {
		if err := h.DB.Model(task).Updates(updates).Error; err != nil {
			h.internalError(ctx, "Failed to update task", err)
			return
		}
	}

	if err := h.DB.Preload("AssignedUsers").First(task, task.ID).Error; err != nil {
		h.internalError(ctx, "Failed to load task", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    types.NewTaskResponse(task),
	})
}

func (h *Handler) SetTaskCompletion(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionEdit)

	if !ok {
		return
	}

	var body CompletionRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || body.Completed == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "completed must be a boolean"})
		return
	}

	completed := *body.Completed

	if completed && event.StrictMode && task.RequiresItem() {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Strict mode is enabled: verify the required item with a photo to complete this task"})
		return
	}

	wasCompleted := task.Completed

	if err := h.DB.Model(task).Update("completed", completed).Error; err != nil {
		h.internalError(ctx, "Failed to update task", err)
		return
	}

	if completed && !wasCompleted {
		h.taskCompleted(ctx, event, *task)
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "completed": completed})
}

// BulkSetCompletion marks the listed tasks of an event completed and every
// other task open. Strict-mode tasks needing an item are left as they are.
func (h *Handler) BulkSetCompletion(ctx *gin.Context) {
	event, _, ok := h.authorizeEvent(ctx, access.ActionEdit)

	if !ok {
		return
	}

	var body BulkCompletionRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	selected := make(map[uint]bool, len(body.TaskIDs))
	for _, id := range body.TaskIDs {
		selected[id] = true
	}

	var (
		newlyCompleted []models.Task
		skipped        []uint
	)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var tasks []models.Task
		if err := tx.Where("event_id = ?", event.ID).Find(&tasks).Error; err != nil {
			return err
		}

		for _, task := range tasks {
			want := selected[task.ID]
			if want == task.Completed {
				continue
			}
			if want && event.StrictMode && task.RequiresItem() {
				skipped = append(skipped, task.ID)
				continue
			}
			if err := tx.Model(&task).Update("completed", want).Error; err != nil {
				return err
			}
			if want {
				newlyCompleted = append(newlyCompleted, task)
			}
		}
		return nil
	})

	if err != nil {
		h.internalError(ctx, "Failed to update tasks", err)
		return
	}

	for _, task := range newlyCompleted {
		h.taskCompleted(ctx, event, task)
	}

	h.refresh(event.ID)

	if skipped == nil {
		skipped = []uint{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Checklist updated successfully",
		"skipped": skipped,
	})
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionEdit)

	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_assignments WHERE task_id = ?", task.ID).Error; err != nil {
			return err
		}
		return tx.Delete(task).Error
	})

	if err != nil {
		h.internalError(ctx, "Failed to delete task", err)
		return
	}

	if task.ImageLink != nil {
		if err := h.Images.Delete(*task.ImageLink); err != nil {
			h.Logger.Warn("Failed to delete task image", zap.String("path", *task.ImageLink), zap.Error(err))
		}
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *Handler) AssignTask(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionEdit)

	if !ok {
		return
	}

	var body AssigneesRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || len(body.UserIDs) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	var participants []models.User

	if err := h.DB.Model(event).Where("users.id IN ?", body.UserIDs).Association("Participants").Find(&participants); err != nil {
		h.internalError(ctx, "Failed to load participants", err)
		return
	}

	found := make(map[uint]bool, len(participants))
	for _, p := range participants {
		found[p.ID] = true
	}

	for _, id := range body.UserIDs {
		if !found[id] {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Tasks can only be assigned to event participants"})
			return
		}
	}

	if err := h.DB.Model(task).Association("AssignedUsers").Append(participants); err != nil {
		h.internalError(ctx, "Failed to assign task", err)
		return
	}

	if err := h.DB.Preload("AssignedUsers").First(task, task.ID).Error; err != nil {
		h.internalError(ctx, "Failed to load task", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task assigned successfully",
		"task":    types.NewTaskResponse(task),
	})
}

// VerifyTaskImage captions an uploaded photo and asks the text model whether
// it shows the task's required item.
func (h *Handler) VerifyTaskImage(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionEdit)

	if !ok {
		return
	}

	if !task.RequiresItem() {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "This task does not require an item"})
		return
	}

	data, filename, err := h.readUpload(ctx, "file")

	switch {
	case errors.Is(err, http.ErrMissingFile):
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	case errors.Is(err, errUploadTooLarge):
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Uploaded file is too large"})
		return
	case err != nil:
		h.internalError(ctx, "Failed to read upload", err)
		return
	}

	if !imaging.AllowedFile(filename) {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File type not allowed. Please upload a png, jpg or jpeg image."})
		return
	}

	thumbnail, err := imaging.CaptionInput(data)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "The uploaded file is not a valid image"})
		return
	}

	if h.AI.Captioner == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Image captioning service is not configured"})
		return
	}

	if !h.generatorAvailable(ctx) {
		return
	}

	caption, err := h.AI.Captioner.Caption(ctx.Request.Context(), thumbnail, "image/jpeg")

	if err != nil {
		h.Logger.Warn("Image captioning failed", zap.Uint("task_id", task.ID), zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Image captioning service unavailable. Please try again later."})
		return
	}

	related, err := h.Assistant.ItemMatches(ctx.Request.Context(), caption, *task.Item)

	if err != nil {
		h.internalError(ctx, "Failed to analyze image", err)
		return
	}

	if !related {
		if err := h.DB.Model(task).Update("completed", false).Error; err != nil {
			h.internalError(ctx, "Failed to update task", err)
			return
		}

		h.refresh(event.ID)

		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "The image does not appear to show the required item: " + *task.Item,
			"caption": caption,
			"related": false,
		})
		return
	}

	rel, err := h.Images.Save(imaging.TaskImagesDir, imaging.Extension(filename), data)

	if err != nil {
		h.internalError(ctx, "Failed to save image", err)
		return
	}

	oldImage := task.ImageLink
	wasCompleted := task.Completed

	if err := h.DB.Model(task).Updates(map[string]interface{}{
		"image_link": rel,
		"completed":  true,
	}).Error; err != nil {
		_ = h.Images.Delete(rel)
		h.internalError(ctx, "Failed to update task", err)
		return
	}

	if oldImage != nil {
		if err := h.Images.Delete(*oldImage); err != nil {
			h.Logger.Warn("Failed to delete replaced task image", zap.String("path", *oldImage), zap.Error(err))
		}
	}

	if !wasCompleted {
		h.taskCompleted(ctx, event, *task)
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Item verified! Task marked as completed.",
		"caption":    caption,
		"related":    true,
		"image_link": rel,
	})
}

// BypassItem lets the owner drop the item requirement and complete the task.
func (h *Handler) BypassItem(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionAdminister)

	if !ok {
		return
	}

	wasCompleted := task.Completed

	if err := h.DB.Model(task).Updates(map[string]interface{}{
		"item":      nil,
		"completed": true,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to bypass item", err)
		return
	}

	task.Item = nil
	task.Completed = true

	if !wasCompleted {
		h.taskCompleted(ctx, event, *task)
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Item requirement bypassed. Task marked as completed."})
}

// VerifyTask is the owner's manual verdict on a task.
func (h *Handler) VerifyTask(ctx *gin.Context) {
	task, event, _, ok := h.authorizeTaskParam(ctx, access.ActionAdminister)

	if !ok {
		return
	}

	var body VerifyTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || body.Verified == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "verified must be a boolean"})
		return
	}

	note := optionalString(body.Note)
	if note != nil && utf8.RuneCountInString(*note) > maxTaskNoteLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task note must be at most 500 characters"})
		return
	}

	updates := map[string]interface{}{"completed": *body.Verified}
	if note != nil {
		updates["note"] = note
	}

	wasCompleted := task.Completed

	if err := h.DB.Model(task).Updates(updates).Error; err != nil {
		h.internalError(ctx, "Failed to verify task", err)
		return
	}

	if *body.Verified && !wasCompleted {
		h.taskCompleted(ctx, event, *task)
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "completed": *body.Verified})
}
