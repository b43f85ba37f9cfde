package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	due := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{BaseModel: models.BaseModel{ID: 1}, Description: "Book hotel", Priority: 1, DueDate: &due, Event: models.Event{Name: "Beach trip"}},
		{BaseModel: models.BaseModel{ID: 2}, Description: "No date", Priority: 2},
		{BaseModel: models.BaseModel{ID: 3}, Description: "Orphan", Priority: 3, DueDate: &due},
	}

	out := Render(tasks, "eventease.test", time.Now())

	parsed, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := parsed.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "task-1@eventease.test", first.Id())
	assert.Equal(t, "Book hotel", first.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Beach trip", first.GetProperty(ics.ComponentPropertyDescription).Value)
	assert.Equal(t, "1", first.GetProperty(ics.ComponentPropertyPriority).Value)

	start, err := first.GetStartAt()
	require.NoError(t, err)
	end, err := first.GetEndAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(due))
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	assert.Equal(t, noEventDescription, events[1].GetProperty(ics.ComponentPropertyDescription).Value)
}

func TestRenderEmpty(t *testing.T) {
	out := Render(nil, "", time.Now())
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, ProductID)
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
