package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/assistant"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/services"
	"github.com/eventease-dev/eventease/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationRequest struct {
	UserInput           string   `json:"userInput"`
	EventID             uint     `json:"event_id"`
	ConversationHistory []string `json:"conversation_history"`
	QuestionIndex       int      `json:"question_index"`
	SessionID           uint     `json:"session_id"`
}

type ChatRequest struct {
	Message string `json:"message"`
	EventID uint   `json:"event_id"`
}

// saveChecklist inserts generated items as tasks of the event.
func saveChecklist(tx *gorm.DB, eventID uint, items []assistant.ChecklistItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tasks := make([]models.Task, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, models.Task{
			Description: item.Description,
			Priority:    models.ValidPriority(item.Priority),
			DueDate:     item.DueDate,
			Item:        item.Item,
			EventID:     eventID,
		})
	}

	if err := tx.Create(&tasks).Error; err != nil {
		return 0, err
	}

	return len(tasks), nil
}

// loadSession returns the caller's session for the event, or a fresh one.
func loadSession(tx *gorm.DB, sessionID, userID, eventID uint) (*models.ChatSession, []string, error) {
	session := &models.ChatSession{UserID: userID, EventID: eventID}

	if sessionID == 0 {
		return session, nil, nil
	}

	err := tx.Where("id = ? AND user_id = ? AND event_id = ?", sessionID, userID, eventID).First(session).Error

	if err != nil {
		return nil, nil, err
	}

	var history []string

	if len(session.History) > 0 {
		if err := json.Unmarshal(session.History, &history); err != nil {
			return nil, nil, err
		}
	}

	return session, history, nil
}

func (h *Handler) Conversation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body ConversationRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.EventID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Event ID is required"})
		return
	}

	event, _, err := h.Access.Authorize(h.DB, body.EventID, userID, access.ActionEdit)

	if err != nil {
		h.accessError(ctx, err)
		return
	}

	if !h.generatorAvailable(ctx) {
		return
	}

	session, history, err := loadSession(h.DB, body.SessionID, userID, event.ID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		} else {
			h.internalError(ctx, "Failed to load conversation", err)
		}
		return
	}

	if session.Completed {
		ctx.JSON(http.StatusConflict, gin.H{"error": "This conversation has already produced a checklist. Start a new one."})
		return
	}

	questionIndex := session.QuestionIndex
	if body.SessionID == 0 {
		history = body.ConversationHistory
		questionIndex = body.QuestionIndex
	}

	reply, err := h.Assistant.Converse(ctx.Request.Context(), assistant.Turn{
		UserInput:     body.UserInput,
		EventName:     event.Name,
		History:       history,
		QuestionIndex: questionIndex,
	})

	if err != nil {
		if errors.Is(err, assistant.ErrInvalidChecklist) {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":        "Invalid JSON response from the assistant",
				"raw_response": reply.Raw,
			})
			return
		}
		h.internalError(ctx, "Failed to generate response", err)
		return
	}

	if !reply.IsChecklist() {
		encoded, err := json.Marshal(reply.History)
		if err != nil {
			h.internalError(ctx, "Failed to save conversation", err)
			return
		}

		session.History = datatypes.JSON(encoded)
		session.QuestionIndex = reply.QuestionIndex

		if err := h.DB.Save(session).Error; err != nil {
			h.internalError(ctx, "Failed to save conversation", err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"question":             reply.Question,
			"conversation_history": reply.History,
			"question_index":       reply.QuestionIndex,
			"session_id":           session.ID,
		})
		return
	}

	var created int

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if created, err = saveChecklist(tx, event.ID, reply.Items); err != nil {
			return err
		}
		if session.ID != 0 {
			return tx.Model(session).Update("completed", true).Error
		}
		return nil
	})

	if err != nil {
		h.internalError(ctx, "Failed to save checklist", err)
		return
	}

	h.notify(event, services.ChecklistCreatedNotification(created, h.completedBy(ctx)))
	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"eventId":    event.ID,
		"message":    "Checklist created successfully",
		"created":    created,
		"session_id": session.ID,
	})
}

// Chat builds a checklist in one request. Signed-in callers get the tasks
// saved to their event; anonymous visitors get plain text back.
func (h *Handler) Chat(ctx *gin.Context) {
	var body ChatRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	message := strings.TrimSpace(body.Message)

	if message == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if !utils.IsAuthenticated(ctx) {
		if !h.generatorAvailable(ctx) {
			return
		}

		text, err := h.Assistant.PlainChecklist(ctx.Request.Context(), message)

		if err != nil {
			h.internalError(ctx, "Failed to generate response", err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"response": text})
		return
	}

	userID, _ := utils.GetCurrentUserID(ctx)

	if body.EventID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Event ID is required"})
		return
	}

	event, _, err := h.Access.Authorize(h.DB, body.EventID, userID, access.ActionEdit)

	if err != nil {
		h.accessError(ctx, err)
		return
	}

	if !h.generatorAvailable(ctx) {
		return
	}

	items, raw, err := h.Assistant.QuickChecklist(ctx.Request.Context(), message)

	if err != nil {
		if errors.Is(err, assistant.ErrInvalidChecklist) {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":        "Invalid JSON response from the assistant",
				"raw_response": raw,
			})
			return
		}
		h.internalError(ctx, "Failed to generate response", err)
		return
	}

	var created int

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = saveChecklist(tx, event.ID, items)
		return err
	})

	if err != nil {
		h.internalError(ctx, "Failed to save checklist", err)
		return
	}

	h.notify(event, services.ChecklistCreatedNotification(created, h.completedBy(ctx)))
	h.refresh(event.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"response": "Checklist created successfully",
		"eventId":  event.ID,
		"created":  created,
	})
}
