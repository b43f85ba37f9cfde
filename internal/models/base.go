package models

import "time"

// BaseModel is gorm.Model without soft deletes; rows are removed for real so
// cascades and join-table cleanup behave the same on every driver.
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
