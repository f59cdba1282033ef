package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User is a community member. FollowerCount is maintained by follow_user interactions.
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name"`
	DisplayName   string         `json:"display_name"`
	Email         *string        `json:"email,omitempty" gorm:"uniqueIndex"`
	AvatarURL     string         `json:"avatar_url,omitempty"`
	FirebaseUID   *string        `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
	FollowerCount int64          `json:"follower_count" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserCompact is the author/actor card embedded in feed items and notifications
type UserCompact struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ToCompact returns the public card for the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

type UpdateUserRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=1,max=50"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
