package models

import "time"

// Notification is a per-recipient read-state pointer to an Activity (PostgreSQL)
type Notification struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	RecipientID uint       `json:"recipient_id" gorm:"not null;uniqueIndex:idx_recipient_activity,priority:1;index:idx_recipient_read,priority:1"`
	ActivityID  uint       `json:"activity_id" gorm:"not null;uniqueIndex:idx_recipient_activity,priority:2"`
	Activity    Activity   `json:"activity" gorm:"foreignKey:ActivityID"`
	IsRead      bool       `json:"is_read" gorm:"not null;default:false;index:idx_recipient_read,priority:2"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
