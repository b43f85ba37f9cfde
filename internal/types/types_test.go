package types

import (
	"testing"
	"time"

	"github.com/eventease-dev/eventease/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAllowedOrigins(t *testing.T) {
	origins := AllowedOrigins("https://eventease.app/", []string{" https://admin.eventease.app ", "", "http://localhost:3000"})

	assert.Equal(t, []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"https://eventease.app",
		"https://admin.eventease.app",
	}, origins)

	assert.True(t, OriginAllowed(origins, "https://eventease.app"))
	assert.False(t, OriginAllowed(origins, "https://evil.example"))
}

func TestNewTaskResponse(t *testing.T) {
	due := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	task := &models.Task{
		BaseModel:     models.BaseModel{ID: 5},
		Description:   "Pack tent",
		Priority:      models.PriorityImportant,
		DueDate:       &due,
		AssignedUsers: []models.User{{BaseModel: models.BaseModel{ID: 2}}},
	}

	resp := NewTaskResponse(task)
	assert.Equal(t, "2030-01-02", *resp.DueDate)
	assert.Equal(t, []uint{2}, resp.AssignedUsers)

	resp = NewTaskResponse(&models.Task{})
	assert.Nil(t, resp.DueDate)
	assert.Empty(t, resp.AssignedUsers)
}
