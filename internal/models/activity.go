package models

import "time"

// ActivityType enumerates recorded user actions
type ActivityType string

const (
	ActivityPostPublished  ActivityType = "post_published"
	ActivityPostLiked      ActivityType = "post_liked"
	ActivityPostBookmarked ActivityType = "post_bookmarked"
	ActivityCommentCreated ActivityType = "comment_created"
	ActivityCommentLiked   ActivityType = "comment_liked"
	ActivityUserFollowed   ActivityType = "user_followed"
	ActivityTagFollowed    ActivityType = "tag_followed"
)

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityPostPublished, ActivityPostLiked, ActivityPostBookmarked,
		ActivityCommentCreated, ActivityCommentLiked, ActivityUserFollowed, ActivityTagFollowed:
		return true
	}
	return false
}

// Broadcast reports whether followers of the actor are notified
func (t ActivityType) Broadcast() bool {
	return t == ActivityPostPublished
}

// TargetType is the kind of entity an activity points at
type TargetType string

const (
	TargetPost    TargetType = "POST"
	TargetComment TargetType = "COMMENT"
	TargetUser    TargetType = "USER"
	TargetTag     TargetType = "TAG"
)

// Valid reports whether t is a known target type
func (t TargetType) Valid() bool {
	switch t {
	case TargetPost, TargetComment, TargetUser, TargetTag:
		return true
	}
	return false
}

// Activity is an immutable record of a user action. PostID is the owning
// post shortcut for POST and COMMENT targets.
type Activity struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	ActorID    uint         `json:"actor_id" gorm:"not null;index"`
	Type       ActivityType `json:"type" gorm:"size:32;not null;index"`
	TargetType TargetType   `json:"target_type" gorm:"size:16;not null"`
	TargetID   uint         `json:"target_id" gorm:"not null"`
	PostID     *uint        `json:"post_id,omitempty" gorm:"index"`
	Message    string       `json:"message,omitempty" gorm:"size:500"`
	CreatedAt  time.Time    `json:"created_at" gorm:"index"`
}

// ActivityMention links an activity to a user referenced in its content
type ActivityMention struct {
	ActivityID uint `json:"activity_id" gorm:"primaryKey;autoIncrement:false"`
	UserID     uint `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
}

// AllModels lists every relational model for AutoMigrate
func AllModels() []any {
	return []any{
		&User{},
		&Tag{},
		&Post{},
		&Comment{},
		&Interaction{},
		&Activity{},
		&ActivityMention{},
		&Notification{},
	}
}
