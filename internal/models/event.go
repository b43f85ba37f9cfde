package models

import "time"

type Event struct {
	BaseModel

	Name           string    `gorm:"size:100;not null"`
	Description    *string   `gorm:"size:500"`
	Date           time.Time `gorm:"not null"`
	UserID         uint      `gorm:"not null;index"`
	StrictMode     bool      `gorm:"default:false"`
	DiscordWebhook string
	SlackWebhook   string

	// Relationships
	Owner        User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Participants []User `gorm:"many2many:event_participants;constraint:OnDelete:CASCADE"`
	Tasks        []Task `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// Progress is the share of completed tasks as a percentage; zero for an empty checklist.
func (e *Event) Progress() float64 {
	if len(e.Tasks) == 0 {
		return 0
	}
	completed := 0
	for _, task := range e.Tasks {
		if task.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(e.Tasks)) * 100
}
