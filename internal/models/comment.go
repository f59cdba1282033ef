package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. Replies point at their parent
// through ParentID; the reply forest is rebuilt on read.
type Comment struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	PostID     uint           `json:"post_id" gorm:"not null;index"`
	ParentID   *uint          `json:"parent_id,omitempty" gorm:"index"`
	AuthorID   uint           `json:"author_id" gorm:"not null;index"`
	Content    string         `json:"content" gorm:"type:text"`
	Body       string         `json:"-" gorm:"type:text"` // rich document JSON, mentions are read from it
	LikeCount  int64          `json:"like_count" gorm:"not null;default:0"`
	ReplyCount int64          `json:"reply_count" gorm:"not null;default:0"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	ParentID *uint           `json:"parent_id,omitempty" validate:"omitempty,min=1"`
	Content  string          `json:"content" validate:"required,min=1,max=5000"`
	Body     json.RawMessage `json:"body,omitempty"`
}
