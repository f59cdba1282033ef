package services

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/anonto42/nano-midea/community/internal/cache"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/pkg/metrics"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const messageLimit = 500

// Target identifies the entity an activity points at
type Target struct {
	Type models.TargetType
	ID   uint
}

// RecordInput is everything needed to record one activity
type RecordInput struct {
	ActorID    uint
	Type       models.ActivityType
	Target     Target
	Message    string
	Recipients []uint // notified in addition to mentions, owner and followers
	Mentions   []uint
}

// Recorded is a committed-or-pending activity with its fan-out result
type Recorded struct {
	Activity   *models.Activity
	Recipients []uint
	Notified   int64
}

// ActivityService records activities and fans them out to notifications
type ActivityService struct {
	db    *gorm.DB
	cache cache.UnreadCache
	log   zerolog.Logger
}

func NewActivityService(db *gorm.DB, unread cache.UnreadCache, log zerolog.Logger) *ActivityService {
	return &ActivityService{db: db, cache: unread, log: log}
}

// Record writes the activity, its mentions and its notifications in one transaction
func (s *ActivityService) Record(ctx context.Context, in RecordInput) (*models.Activity, error) {
	var rec *Recorded
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.RecordTx(repositories.NewRepos(tx), in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.AfterCommit(ctx, rec)
	return rec.Activity, nil
}

// RecordTx records inside the caller's transaction. The caller passes the
// result to AfterCommit once the transaction has committed.
func (s *ActivityService) RecordTx(repos *repositories.Repos, in RecordInput) (*Recorded, error) {
	if in.ActorID == 0 {
		return nil, AuthError("authenticated actor required")
	}
	if !in.Type.Valid() {
		return nil, ValidationError("unknown activity type %q", in.Type)
	}
	if !in.Target.Type.Valid() {
		return nil, ValidationError("unknown target type %q", in.Target.Type)
	}
	if in.Target.ID == 0 {
		return nil, ValidationError("target id must be positive")
	}

	postID, owner, err := resolveTarget(repos, in.Target)
	if err != nil {
		return nil, err
	}

	activity := &models.Activity{
		ActorID:    in.ActorID,
		Type:       in.Type,
		TargetType: in.Target.Type,
		TargetID:   in.Target.ID,
		PostID:     postID,
		Message:    truncate(in.Message, messageLimit),
	}
	if err := repos.Activities.CreateActivity(activity); err != nil {
		return nil, InternalError("create activity", err)
	}

	mentions, err := knownUsers(repos, in.Mentions)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Activities.InsertMentions(activity.ID, mentions); err != nil {
		return nil, InternalError("insert mentions", err)
	}

	var followers []uint
	if in.Type.Broadcast() {
		followers, err = repos.Interactions.ActorIDs(in.ActorID, models.KindFollowUser)
		if err != nil {
			return nil, InternalError("load followers", err)
		}
	}

	recipients := RecipientSet(in.ActorID, in.Recipients, mentions, owner, followers)
	notified, err := repos.Notifications.InsertForRecipients(activity.ID, recipients)
	if err != nil {
		return nil, InternalError("insert notifications", err)
	}

	return &Recorded{Activity: activity, Recipients: recipients, Notified: notified}, nil
}

// AfterCommit publishes metrics and drops cached unread counts of the recipients.
// Cache failures are logged; the database stays authoritative.
func (s *ActivityService) AfterCommit(ctx context.Context, recs ...*Recorded) {
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		metrics.ActivityRecorded(string(rec.Activity.Type), rec.Notified)
		s.log.Debug().
			Uint("activity_id", rec.Activity.ID).
			Str("type", string(rec.Activity.Type)).
			Int64("notified", rec.Notified).
			Msg("activity recorded")
		if len(rec.Recipients) == 0 {
			continue
		}
		if err := s.cache.Invalidate(ctx, rec.Recipients...); err != nil {
			s.log.Warn().Err(err).Uint("activity_id", rec.Activity.ID).Msg("invalidate unread counts")
		}
	}
}

// RecipientSet is explicit ∪ mentions ∪ {owner} ∪ followers, without the
// actor and without zero ids, in ascending order.
func RecipientSet(actorID uint, explicit, mentions []uint, owner uint, followers []uint) []uint {
	set := make(map[uint]struct{}, len(explicit)+len(mentions)+len(followers)+1)
	add := func(ids ...uint) {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	add(explicit...)
	add(mentions...)
	add(owner)
	add(followers...)
	delete(set, actorID)
	delete(set, 0)

	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// resolveTarget returns the owning post shortcut and the owner of the target
func resolveTarget(repos *repositories.Repos, t Target) (*uint, uint, error) {
	switch t.Type {
	case models.TargetPost:
		author, err := repos.Posts.GetAuthorID(t.ID)
		if err != nil {
			return nil, 0, translate(err, "post")
		}
		id := t.ID
		return &id, author, nil
	case models.TargetComment:
		c, err := repos.Comments.GetCommentByID(t.ID)
		if err != nil {
			return nil, 0, translate(err, "comment")
		}
		postID := c.PostID
		return &postID, c.AuthorID, nil
	case models.TargetUser:
		if _, err := repos.Users.GetUserByID(t.ID); err != nil {
			return nil, 0, translate(err, "user")
		}
		return nil, t.ID, nil
	case models.TargetTag:
		if _, err := repos.Tags.GetTagByID(t.ID); err != nil {
			return nil, 0, translate(err, "tag")
		}
		return nil, 0, nil
	}
	return nil, 0, ValidationError("unknown target type %q", t.Type)
}

// knownUsers dedupes ids and drops those that do not name an existing user
func knownUsers(repos *repositories.Repos, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := repos.Users.GetUsersByIDs(ids)
	if err != nil {
		return nil, InternalError("load mentioned users", err)
	}
	out := make([]uint, 0, len(users))
	for id := range users {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
