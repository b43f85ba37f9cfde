// Package calendar renders a user's dated tasks as an iCalendar feed.
package calendar

import (
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/eventease-dev/eventease/internal/models"
)

const (
	ProductID   = "-//EventEase//Task Calendar//EN"
	ContentType = "text/calendar"
	FileName    = "calendar.ics"

	noEventDescription = "No Event Description"
)

// Build creates one all-day-long VEVENT per task with a due date. Tasks are
// expected to have their Event preloaded.
func Build(tasks []models.Task, domain string, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)

	if domain == "" {
		domain = "eventease"
	}

	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}

		ev := cal.AddEvent(fmt.Sprintf("task-%d@%s", task.ID, domain))
		ev.SetDtStampTime(now)
		ev.SetCreatedTime(task.CreatedAt)
		ev.SetSummary(task.Description)
		ev.SetStartAt(*task.DueDate)
		ev.SetEndAt(task.DueDate.Add(24 * time.Hour))
		ev.SetProperty(ics.ComponentPropertyPriority, strconv.Itoa(task.Priority))

		description := noEventDescription
		if task.Event.Name != "" {
			description = task.Event.Name
		}
		ev.SetDescription(description)
	}

	return cal
}

func Render(tasks []models.Task, domain string, now time.Time) string {
	return Build(tasks, domain, now).Serialize()
}
