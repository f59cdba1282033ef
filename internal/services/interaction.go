package services

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/pkg/metrics"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type kindRule struct {
	target   models.TargetType
	counter  repositories.Counter
	activity models.ActivityType // empty: no activity
}

var interactionKinds = map[models.InteractionKind]kindRule{
	models.KindLikePost:     {models.TargetPost, repositories.PostLikes, models.ActivityPostLiked},
	models.KindBookmarkPost: {models.TargetPost, repositories.PostBookmarks, models.ActivityPostBookmarked},
	models.KindReportPost:   {models.TargetPost, repositories.PostReports, ""},
	models.KindLikeComment:  {models.TargetComment, repositories.CommentLikes, models.ActivityCommentLiked},
	models.KindFollowUser:   {models.TargetUser, repositories.UserFollowers, models.ActivityUserFollowed},
	models.KindFollowTag:    {models.TargetTag, repositories.TagFollowers, models.ActivityTagFollowed},
}

func (k kindRule) name() string {
	return strings.ToLower(string(k.target))
}

// ToggleResult reports whether the call changed state and the counter afterwards
type ToggleResult struct {
	Applied  bool  `json:"applied"`
	NewCount int64 `json:"new_count"`
}

// InteractionService toggles likes, bookmarks, reports and follows
type InteractionService struct {
	db         *gorm.DB
	activities *ActivityService
	log        zerolog.Logger
}

func NewInteractionService(db *gorm.DB, activities *ActivityService, log zerolog.Logger) *InteractionService {
	return &InteractionService{db: db, activities: activities, log: log}
}

func (s *InteractionService) ToggleOn(ctx context.Context, actorID, targetID uint, kind models.InteractionKind) (ToggleResult, error) {
	return s.Toggle(ctx, actorID, targetID, kind, true)
}

func (s *InteractionService) ToggleOff(ctx context.Context, actorID, targetID uint, kind models.InteractionKind) (ToggleResult, error) {
	return s.Toggle(ctx, actorID, targetID, kind, false)
}

// Toggle creates or removes the (actor, target, kind) edge. The edge, the
// target counter and the activity commit together. Repeating a toggle that
// already holds succeeds with Applied false and changes nothing.
func (s *InteractionService) Toggle(ctx context.Context, actorID, targetID uint, kind models.InteractionKind, on bool) (ToggleResult, error) {
	if actorID == 0 {
		return ToggleResult{}, AuthError("authenticated actor required")
	}
	rule, ok := interactionKinds[kind]
	if !ok {
		return ToggleResult{}, ValidationError("unknown interaction kind %q", kind)
	}
	if targetID == 0 {
		return ToggleResult{}, ValidationError("target id must be positive")
	}
	if kind == models.KindFollowUser && actorID == targetID {
		return ToggleResult{}, ValidationError("users cannot follow themselves")
	}

	var (
		result ToggleResult
		rec    *Recorded
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewRepos(tx)
		if err := checkVisible(repos, actorID, targetID, rule.target); err != nil {
			return err
		}
		var err error
		if on {
			result.Applied, rec, err = s.on(repos, actorID, targetID, kind, rule)
		} else {
			result.Applied, err = s.off(repos, actorID, targetID, kind, rule)
		}
		if err != nil {
			return err
		}
		result.NewCount, err = repos.Counters.Value(rule.counter, targetID)
		return translate(err, rule.name())
	})
	if err != nil {
		return ToggleResult{}, err
	}

	metrics.Toggle(string(kind), on, result.Applied)
	s.log.Debug().
		Uint("actor_id", actorID).
		Uint("target_id", targetID).
		Str("kind", string(kind)).
		Bool("on", on).
		Bool("applied", result.Applied).
		Msg("interaction toggled")
	s.activities.AfterCommit(ctx, rec)
	return result, nil
}

// checkVisible hides drafts from interactions by anyone but their author,
// including interactions with comments under a draft.
func checkVisible(repos *repositories.Repos, actorID, targetID uint, target models.TargetType) error {
	switch target {
	case models.TargetPost:
		_, err := visiblePost(repos, actorID, targetID)
		return err
	case models.TargetComment:
		comment, err := repos.Comments.GetCommentByID(targetID)
		if err != nil {
			return translate(err, "comment")
		}
		_, err = visiblePost(repos, actorID, comment.PostID)
		if KindOf(err) == KindNotFound {
			return NotFoundError("comment not found")
		}
		return err
	}
	return nil
}

func (s *InteractionService) on(repos *repositories.Repos, actorID, targetID uint, kind models.InteractionKind, rule kindRule) (bool, *Recorded, error) {
	res, err := repos.Interactions.Insert(actorID, targetID, kind)
	if err != nil {
		return false, nil, InternalError("insert interaction", err)
	}
	if res == repositories.AlreadyExists {
		return false, nil, nil
	}

	if err := repos.Counters.Increment(rule.counter, targetID); err != nil {
		return false, nil, translate(err, rule.name())
	}
	if rule.activity == "" {
		return true, nil, nil
	}
	rec, err := s.activities.RecordTx(repos, RecordInput{
		ActorID: actorID,
		Type:    rule.activity,
		Target:  Target{Type: rule.target, ID: targetID},
	})
	if err != nil {
		return false, nil, err
	}
	return true, rec, nil
}

func (s *InteractionService) off(repos *repositories.Repos, actorID, targetID uint, kind models.InteractionKind, rule kindRule) (bool, error) {
	removed, err := repos.Interactions.Delete(actorID, targetID, kind)
	if err != nil {
		return false, InternalError("delete interaction", err)
	}
	if removed == 0 {
		return false, nil
	}
	if err := repos.Counters.Decrement(rule.counter, targetID); err != nil {
		return false, translate(err, rule.name())
	}
	return true, nil
}

// Has reports whether the edge exists
func (s *InteractionService) Has(ctx context.Context, actorID, targetID uint, kind models.InteractionKind) (bool, error) {
	ok, err := repositories.NewRepos(s.db.WithContext(ctx)).Interactions.Exists(actorID, targetID, kind)
	if err != nil {
		return false, InternalError("load interaction", err)
	}
	return ok, nil
}

// Followers lists the users following userID
func (s *InteractionService) Followers(ctx context.Context, userID uint) ([]uint, error) {
	ids, err := repositories.NewRepos(s.db.WithContext(ctx)).Interactions.ActorIDs(userID, models.KindFollowUser)
	if err != nil {
		return nil, InternalError("load followers", err)
	}
	return ids, nil
}
