package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/community/internal/cache"
	"github.com/anonto42/nano-midea/community/internal/cursor"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// NotificationQuery is one notification page request
type NotificationQuery struct {
	RecipientID uint
	IncludeRead bool
	Cursor      string
	Limit       int
}

// NotificationService reads and updates a recipient's notifications
type NotificationService struct {
	db           *gorm.DB
	cache        cache.UnreadCache
	log          zerolog.Logger
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

func NewNotificationService(db *gorm.DB, unread cache.UnreadCache, log zerolog.Logger, defaultLimit, maxLimit int) *NotificationService {
	return &NotificationService{
		db:           db,
		cache:        unread,
		log:          log,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) repo(ctx context.Context) repositories.NotificationRepository {
	return repositories.NewPostgresNotificationRepository(s.db.WithContext(ctx))
}

// List returns the recipient's notifications, newest first
func (s *NotificationService) List(ctx context.Context, q NotificationQuery) (cursor.Page[models.Notification], error) {
	if q.RecipientID == 0 {
		return cursor.Page[models.Notification]{}, AuthError("authenticated recipient required")
	}
	after, err := cursor.Optional(q.Cursor, cursor.ShapeSimple)
	if err != nil {
		return cursor.Page[models.Notification]{}, ValidationError("invalid cursor %q", q.Cursor)
	}
	limit := q.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	limit = cursor.ClampLimit(limit, s.maxLimit)

	rows, err := s.repo(ctx).List(repositories.NotificationQuery{
		RecipientID: q.RecipientID,
		IncludeRead: q.IncludeRead,
		After:       after,
		Limit:       limit + 1,
	})
	if err != nil {
		return cursor.Page[models.Notification]{}, InternalError("list notifications", err)
	}
	return cursor.Window(rows, limit, func(n models.Notification) cursor.Cursor {
		return cursor.Simple(n.ID)
	}), nil
}

// MarkRead marks one notification read. Marking an already read notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id uint) error {
	repo, err := s.owned(ctx, recipientID, id)
	if err != nil {
		return err
	}
	changed, err := repo.MarkAsRead(id, s.now())
	if err != nil {
		return InternalError("mark notification read", err)
	}
	if changed > 0 {
		s.invalidate(ctx, recipientID)
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient read
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	if recipientID == 0 {
		return 0, AuthError("authenticated recipient required")
	}
	changed, err := s.repo(ctx).MarkAllAsRead(recipientID, s.now())
	if err != nil {
		return 0, InternalError("mark notifications read", err)
	}
	if changed > 0 {
		s.invalidate(ctx, recipientID)
	}
	return changed, nil
}

// Delete removes one of the recipient's notifications
func (s *NotificationService) Delete(ctx context.Context, recipientID, id uint) error {
	repo, err := s.owned(ctx, recipientID, id)
	if err != nil {
		return err
	}
	if err := repo.Delete(id); err != nil {
		return translate(err, "notification")
	}
	s.invalidate(ctx, recipientID)
	return nil
}

// UnreadCount returns the number of unread notifications, served from the
// cache when possible
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	if recipientID == 0 {
		return 0, AuthError("authenticated recipient required")
	}
	if n, ok, err := s.cache.Get(ctx, recipientID); err != nil {
		s.log.Warn().Err(err).Uint("recipient_id", recipientID).Msg("read unread count cache")
	} else if ok {
		return n, nil
	}

	n, err := s.repo(ctx).GetUnreadCount(recipientID)
	if err != nil {
		return 0, InternalError("count unread notifications", err)
	}
	if err := s.cache.Set(ctx, recipientID, n); err != nil {
		s.log.Warn().Err(err).Uint("recipient_id", recipientID).Msg("write unread count cache")
	}
	return n, nil
}

func (s *NotificationService) owned(ctx context.Context, recipientID, id uint) (repositories.NotificationRepository, error) {
	if recipientID == 0 {
		return nil, AuthError("authenticated recipient required")
	}
	repo := s.repo(ctx)
	n, err := repo.GetByID(id)
	if err != nil {
		return nil, translate(err, "notification")
	}
	if n.RecipientID != recipientID {
		return nil, ForbiddenError("notification belongs to another user")
	}
	return repo, nil
}

func (s *NotificationService) invalidate(ctx context.Context, recipientID uint) {
	if err := s.cache.Invalidate(ctx, recipientID); err != nil {
		s.log.Warn().Err(err).Uint("recipient_id", recipientID).Msg("invalidate unread count")
	}
}
