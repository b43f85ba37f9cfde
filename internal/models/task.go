package models

import (
	"strings"
	"time"
)

// Task priorities, most urgent first.
const (
	PriorityImportant = 1
	PriorityNecessary = 2
	PriorityNormal    = 3
)

type Task struct {
	BaseModel

	Description string     `gorm:"size:255;not null"`
	Note        *string    `gorm:"size:500"`
	Completed   bool       `gorm:"default:false"`
	Priority    int        `gorm:"not null"`
	DueDate     *time.Time `gorm:"index"`
	EventID     uint       `gorm:"not null;index"`
	Item        *string    `gorm:"size:100"`
	ImageLink   *string    `gorm:"size:200"`

	// Relationships
	Event         Event  `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AssignedUsers []User `gorm:"many2many:task_assignments;constraint:OnDelete:CASCADE"`
}

// RequiresItem reports whether completing the task needs proof of a physical item.
func (t *Task) RequiresItem() bool {
	return t.Item != nil && strings.TrimSpace(*t.Item) != ""
}

// ValidPriority clamps anything outside 1..3 to normal.
func ValidPriority(p int) int {
	if p < PriorityImportant || p > PriorityNormal {
		return PriorityNormal
	}
	return p
}
