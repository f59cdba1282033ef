package models

import (
	"encoding/json"
	"time"

	"github.com/anonto42/nano-midea/community/internal/richtext"
	"gorm.io/gorm"
)

// Post is a piece of community content. The rich body lives in the document
// store (see PostBody); counters are denormalized and kept in step with
// interactions and comments inside the same transaction.
type Post struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	AuthorID      uint           `json:"author_id" gorm:"not null;index"`
	Title         string         `json:"title" gorm:"size:200;not null"`
	Summary       string         `json:"summary,omitempty" gorm:"size:500"`
	Published     bool           `json:"published" gorm:"not null;default:false;index"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	LikeCount     int64          `json:"like_count" gorm:"not null;default:0"`
	BookmarkCount int64          `json:"bookmark_count" gorm:"not null;default:0"`
	CommentCount  int64          `json:"comment_count" gorm:"not null;default:0"`
	ReportCount   int64          `json:"-" gorm:"not null;default:0"`
	Tags          []Tag          `json:"tags,omitempty" gorm:"many2many:post_tags;"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// PostBody is the rich document of a post, stored in MongoDB keyed by post id
type PostBody struct {
	PostID    uint          `json:"post_id" bson:"post_id"`
	Body      richtext.Node `json:"body" bson:"body"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// Tag is a topic posts can carry and users can follow
type Tag struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"size:50;not null;uniqueIndex"`
	FollowerCount int64     `json:"follower_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string          `json:"title" validate:"required,min=1,max=200"`
	Summary string          `json:"summary,omitempty" validate:"omitempty,max=500"`
	Body    json.RawMessage `json:"body" validate:"required"`
	Tags    []string        `json:"tags,omitempty" validate:"omitempty,max=5,dive,min=1,max=50"`
	Publish bool            `json:"publish"`
}
