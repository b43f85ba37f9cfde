package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/services"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxEventNameLength        = 100
	maxEventDescriptionLength = 500
)

type CreateEventRequest struct {
	Name        string `json:"eventName"`
	Date        string `json:"eventDate"`
	Description string `json:"eventDescription"`
}

type RenameEventRequest struct {
	Name string `json:"name"`
}

type RedateEventRequest struct {
	Date string `json:"date"`
}

type ParticipantsRequest struct {
	Add    []uint `json:"add"`
	Remove []uint `json:"remove"`
}

type TransferOwnershipRequest struct {
	NewOwnerID   uint   `json:"new_owner_id"`
	NewEventName string `json:"new_event_name"`
	NewEventDate string `json:"new_event_date"`
}

type WebhooksRequest struct {
	DiscordWebhook string `json:"discord_webhook"`
	SlackWebhook   string `json:"slack_webhook"`
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(types.DateLayout, strings.TrimSpace(value))
}

func validEventName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= maxEventNameLength
}

// authorizeEvent parses :event_id and checks the caller may perform action.
// On failure the response has been written.
func (h *Handler) authorizeEvent(ctx *gin.Context, action access.Action) (*models.Event, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, 0, false
	}

	eventID, err := utils.GetEventID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, 0, false
	}

	event, _, err := h.Access.Authorize(h.DB, eventID, userID, action)

	if err != nil {
		h.accessError(ctx, err)
		return nil, 0, false
	}

	return event, userID, true
}

func (h *Handler) ListEvents(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var events []models.Event

	participating := h.DB.Table("event_participants").Select("event_id").Where("user_id = ?", userID)

	err = h.DB.Preload("Tasks").
		Where("user_id = ? OR id IN (?)", userID, participating).
		Order("date ASC").Order("id ASC").
		Find(&events).Error

	if err != nil {
		h.internalError(ctx, "Failed to fetch events", err)
		return
	}

	response := make([]types.EventResponse, 0, len(events))
	for i := range events {
		response = append(response, types.NewEventResponse(&events[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"events": response})
}

func (h *Handler) CreateEvent(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body CreateEventRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name := strings.TrimSpace(body.Name)

	if !validEventName(name) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Event name is required and must be at most 100 characters"})
		return
	}

	date := h.now()

	if strings.TrimSpace(body.Date) != "" {
		parsed, err := parseDate(body.Date)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	event := models.Event{
		Name:   name,
		Date:   date,
		UserID: user.ID,
	}

	if description := strings.TrimSpace(body.Description); description != "" {
		if utf8.RuneCountInString(description) > maxEventDescriptionLength {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Event description must be at most 500 characters"})
			return
		}
		event.Description = &description
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return tx.Model(&event).Association("Participants").Append(user)
	})

	if err != nil {
		h.internalError(ctx, "Failed to create event", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully",
		"eventId": event.ID,
		"event":   types.NewEventResponse(&event),
	})
}

// orderedTasks sorts by priority, then due date with undated tasks last.
func orderedTasks(tx *gorm.DB, eventID uint) ([]models.Task, error) {
	var tasks []models.Task

	err := tx.Preload("AssignedUsers").
		Where("event_id = ?", eventID).
		Order("priority ASC").
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END").
		Order("due_date ASC").
		Order("id ASC").
		Find(&tasks).Error

	return tasks, err
}

func (h *Handler) GetChecklist(ctx *gin.Context) {
	event, userID, ok := h.authorizeEvent(ctx, access.ActionView)

	if !ok {
		return
	}

	tasks, err := orderedTasks(h.DB, event.ID)

	if err != nil {
		h.internalError(ctx, "Failed to load checklist", err)
		return
	}

	var participants []models.User

	if err := h.DB.Model(event).Order("username ASC").Association("Participants").Find(&participants); err != nil {
		h.internalError(ctx, "Failed to load participants", err)
		return
	}

	friends, err := loadFriends(h.DB, userID)

	if err != nil {
		h.internalError(ctx, "Failed to load friends", err)
		return
	}

	// Clients pre-check these when inviting friends.
	participantIDs := make([]uint, 0, len(participants))
	for _, p := range participants {
		participantIDs = append(participantIDs, p.ID)
	}

	taskResponses := make([]types.TaskResponse, 0, len(tasks))
	for i := range tasks {
		taskResponses = append(taskResponses, types.NewTaskResponse(&tasks[i]))
	}

	event.Tasks = tasks

	ctx.JSON(http.StatusOK, gin.H{
		"event":                    types.NewEventResponse(event),
		"tasks":                    taskResponses,
		"participants":             types.NewFriendResponses(participants),
		"friends":                  types.NewFriendResponses(friends),
		"assigned_participant_ids": participantIDs,
		"strict_mode":              event.StrictMode,
		"is_owner":                 event.UserID == userID,
	})
}

func (h *Handler) RenameEvent(ctx *gin.Context) {
	event, _, ok := h.authorizeEvent(ctx, access.ActionEdit)

	if !ok {
		return
	}

	var body RenameEventRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name := strings.TrimSpace(body.Name)

	if !validEventName(name) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Event name is required and must be at most 100 characters"})
		return
	}

	if err := h.DB.Model(event).Update("name", name).Error; err != nil {
		h.internalError(ctx, "Failed to update event name", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Event name updated successfully", "name": name})
}

func (h *Handler) RedateEvent(ctx *gin.Context) {
	event, _, ok := h.authorizeEvent(ctx, access.ActionEdit)

	if !ok {
		return
	}

	var body RedateEventRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	date, err := parseDate(body.Date)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	if err := h.DB.Model(event).Update("date", date).Error; err != nil {
		h.internalError(ctx, "Failed to update event date", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Event date updated successfully", "date": date.Format(types.DateLayout)})
}

func (h *Handler) DeleteEvent(ctx *gin.Context) {
	event, _, ok := h.authorizeEvent(ctx, access.ActionAdminister)

	if !ok {
		return
	}

	var images []string

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var links []*string
		if err := tx.Model(&models.Task{}).Where("event_id = ? AND image_link IS NOT NULL", event.ID).Pluck("image_link", &links).Error; err != nil {
			return err
		}
		for _, link := range links {
			if link != nil && *link != "" {
				images = append(images, *link)
			}
		}

		taskIDs := tx.Model(&models.Task{}).Select("id").Where("event_id = ?", event.ID)

		if err := tx.Exec("DELETE FROM task_assignments WHERE task_id IN (?)", taskIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM event_participants WHERE event_id = ?", event.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.ChatSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(event).Error
	})

	if err != nil {
		h.internalError(ctx, "Failed to delete event", err)
		return
	}

	for _, image := range images {
		if err := h.Images.Delete(image); err != nil {
			h.Logger.Warn("Failed to delete task image", zap.String("path", image), zap.Error(err))
		}
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *Handler) UpdateParticipants(ctx *gin.Context) {
	event, userID, ok := h.authorizeEvent(ctx, access.ActionInvite)

	if !ok {
		return
	}

	var body ParticipantsRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if len(body.Remove) > 0 {
		role, err := access.RoleOf(h.DB, event, userID)
		if err != nil {
			h.internalError(ctx, "Failed to check permissions", err)
			return
		}
		if !h.Access.Allowed(role, access.ActionAdminister) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the event owner can remove participants"})
			return
		}
		for _, id := range body.Remove {
			if id == event.UserID {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "The event owner cannot be removed"})
				return
			}
		}
	}

	var toAdd []models.User

	if len(body.Add) > 0 {
		friends, err := loadFriends(h.DB, userID)
		if err != nil {
			h.internalError(ctx, "Failed to load friends", err)
			return
		}

		byID := make(map[uint]models.User, len(friends))
		for _, f := range friends {
			byID[f.ID] = f
		}

		for _, id := range body.Add {
			friend, isFriend := byID[id]
			if !isFriend {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "You can only add your friends to an event"})
				return
			}
			toAdd = append(toAdd, friend)
		}
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if len(toAdd) > 0 {
			if err := tx.Model(event).Association("Participants").Append(toAdd); err != nil {
				return err
			}
		}
		if len(body.Remove) > 0 {
			if err := tx.Exec("DELETE FROM event_participants WHERE event_id = ? AND user_id IN ?", event.ID, body.Remove).Error; err != nil {
				return err
			}
			// Removed participants lose their assignments in this event.
			taskIDs := tx.Model(&models.Task{}).Select("id").Where("event_id = ?", event.ID)
			if err := tx.Exec("DELETE FROM task_assignments WHERE user_id IN ? AND task_id IN (?)", body.Remove, taskIDs).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		h.internalError(ctx, "Failed to update participants", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Participants updated successfully"})
}

func (h *Handler) TransferOwnership(ctx *gin.Context) {
	event, userID, ok := h.authorizeEvent(ctx, access.ActionAdminister)

	if !ok {
		return
	}

	var body TransferOwnershipRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || body.NewOwnerID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "New owner is required"})
		return
	}

	if body.NewOwnerID == userID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You already own this event"})
		return
	}

	var newOwner models.User

	if err := h.DB.First(&newOwner, body.NewOwnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "New owner must be a participant of the event"})
		} else {
			h.internalError(ctx, "Failed to transfer ownership", err)
		}
		return
	}

	role, err := access.RoleOf(h.DB, event, newOwner.ID)

	if err != nil {
		h.internalError(ctx, "Failed to transfer ownership", err)
		return
	}

	if role != access.RoleParticipant {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "New owner must be a participant of the event"})
		return
	}

	updates := map[string]interface{}{"user_id": newOwner.ID}

	if name := strings.TrimSpace(body.NewEventName); name != "" {
		if !validEventName(name) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Event name must be at most 100 characters"})
			return
		}
		updates["name"] = name
	}

	if strings.TrimSpace(body.NewEventDate) != "" {
		date, err := parseDate(body.NewEventDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
			return
		}
		updates["date"] = date
	}

	if err := h.DB.Model(event).Updates(updates).Error; err != nil {
		h.internalError(ctx, "Failed to transfer ownership", err)
		return
	}

	previous, _ := utils.GetCurrentUser(ctx)
	h.notify(event, services.OwnershipTransferredNotification(previous.Username, newOwner.Username))
	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Ownership transferred to " + newOwner.Username})
}

// SetStrictMode requires a JSON boolean strict_mode field.
func (h *Handler) SetStrictMode(ctx *gin.Context) {
	event, _, ok := h.authorizeEvent(ctx, access.ActionAdminister)

	if !ok {
		return
	}

	var body map[string]interface{}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	strict, isBool := body["strict_mode"].(bool)

	if !isBool {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "strict_mode must be a boolean"})
		return
	}

	if err := h.DB.Model(event).Update("strict_mode", strict).Error; err != nil {
		h.internalError(ctx, "Failed to update strict mode", err)
		return
	}

	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "strict_mode": strict})
}

func (h *Handler) UpdateWebhooks(ctx *gin.Context) {
	event, _, ok := h.authorizeEvent(ctx, access.ActionAdminister)

	if !ok {
		return
	}

	var body WebhooksRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	discord := strings.TrimSpace(body.DiscordWebhook)
	slack := strings.TrimSpace(body.SlackWebhook)

	if !services.ValidWebhookURL(services.TargetDiscord, discord) || !services.ValidWebhookURL(services.TargetSlack, slack) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Webhooks must be https Discord or Slack incoming webhook URLs"})
		return
	}

	if err := h.DB.Model(event).Updates(map[string]interface{}{
		"discord_webhook": discord,
		"slack_webhook":   slack,
	}).Error; err != nil {
		h.internalError(ctx, "Failed to update webhooks", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Webhooks updated successfully"})
}
