package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/ai"
	"github.com/eventease-dev/eventease/internal/assistant"
	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/imaging"
	"github.com/eventease-dev/eventease/internal/mail"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/monitors"
	"github.com/eventease-dev/eventease/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler carries the dependencies shared by every route.
type Handler struct {
	DB        *gorm.DB
	Config    *config.AppConfig
	Logger    *zap.Logger
	Access    *access.Enforcer
	Mailer    *mail.Mailer
	AI        ai.Services
	Assistant *assistant.Assistant
	Images    *imaging.Store
	Notifier  *services.Notifier
	Hub       *Hub
	Probes    []monitors.Probe

	// Now is swapped in tests.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) internalError(ctx *gin.Context, message string, err error) {
	h.Logger.Error(message,
		zap.Error(err),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
	)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// accessError maps authorization failures to responses.
func (h *Handler) accessError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, access.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	case errors.Is(err, errTaskNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	default:
		h.internalError(ctx, "Failed to check permissions", err)
	}
}

var errTaskNotFound = errors.New("task not found")

// authorizeTask loads a task and checks the caller's rights on its event.
func (h *Handler) authorizeTask(tx *gorm.DB, taskID, userID uint, action access.Action) (*models.Task, *models.Event, error) {
	var task models.Task

	if err := tx.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errTaskNotFound
		}
		return nil, nil, err
	}

	event, _, err := h.Access.Authorize(tx, task.EventID, userID, action)

	if err != nil {
		// Tasks of events the caller cannot see do not exist for them.
		if errors.Is(err, access.ErrNotFound) {
			return nil, nil, errTaskNotFound
		}
		return nil, nil, err
	}

	return &task, event, nil
}

// refresh tells connected clients of an event to reload.
func (h *Handler) refresh(eventID uint) {
	if h.Hub != nil {
		h.Hub.BroadcastRefresh(eventID)
	}
}

func (h *Handler) notify(event *models.Event, notification services.Notification) {
	if h.Notifier != nil && event != nil {
		h.Notifier.Dispatch(*event, notification)
	}
}

func (h *Handler) generatorAvailable(ctx *gin.Context) bool {
	if h.Assistant == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Text generation service is not configured"})
		return false
	}
	return true
}

var errUploadTooLarge = errors.New("uploaded file is too large")

// readUpload returns the named multipart file and its original name.
// http.ErrMissingFile is returned when the field is absent or empty.
func (h *Handler) readUpload(ctx *gin.Context, field string) ([]byte, string, error) {
	header, err := ctx.FormFile(field)

	if err != nil {
		return nil, "", http.ErrMissingFile
	}

	if header.Filename == "" {
		return nil, "", http.ErrMissingFile
	}

	limit := h.Config.UploadMaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}

	if header.Size > limit {
		return nil, header.Filename, errUploadTooLarge
	}

	file, err := header.Open()

	if err != nil {
		return nil, header.Filename, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))

	if err != nil {
		return nil, header.Filename, fmt.Errorf("read upload: %w", err)
	}

	if int64(len(data)) > limit {
		return nil, header.Filename, errUploadTooLarge
	}

	return data, header.Filename, nil
}
