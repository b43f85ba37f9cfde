package models

import (
	"gorm.io/datatypes"
)

// ChatSession keeps the checklist assistant's transcript for one event.
type ChatSession struct {
	BaseModel

	UserID        uint           `gorm:"not null;index"`
	EventID       uint           `gorm:"not null;index"`
	QuestionIndex int            `gorm:"not null;default:0"`
	History       datatypes.JSON `gorm:"type:json"`
	Completed     bool           `gorm:"default:false"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
