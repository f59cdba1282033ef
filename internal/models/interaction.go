package models

import "time"

// InteractionKind names an actor→target edge type
type InteractionKind string

const (
	KindLikePost     InteractionKind = "like_post"
	KindBookmarkPost InteractionKind = "bookmark_post"
	KindReportPost   InteractionKind = "report_post"
	KindLikeComment  InteractionKind = "like_comment"
	KindFollowUser   InteractionKind = "follow_user"
	KindFollowTag    InteractionKind = "follow_tag"
)

// Interaction generalizes likes, bookmarks, reports and follows.
// The unique (actor, target, kind) index arbitrates concurrent duplicate toggles.
type Interaction struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	ActorID   uint            `json:"actor_id" gorm:"not null;uniqueIndex:idx_interaction_edge,priority:1"`
	TargetID  uint            `json:"target_id" gorm:"not null;uniqueIndex:idx_interaction_edge,priority:2;index:idx_interaction_target,priority:1"`
	Kind      InteractionKind `json:"kind" gorm:"size:20;not null;uniqueIndex:idx_interaction_edge,priority:3;index:idx_interaction_target,priority:2"`
	CreatedAt time.Time       `json:"created_at"`
}
