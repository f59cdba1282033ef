package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/nano-midea/community/internal/cache"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/richtext"
	"github.com/anonto42/nano-midea/community/internal/testdb"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memBodies struct {
	mu      sync.Mutex
	docs    map[uint]richtext.Node
	saveErr error
}

func newMemBodies() *memBodies {
	return &memBodies{docs: map[uint]richtext.Node{}}
}

func (m *memBodies) SaveBody(_ context.Context, postID uint, body richtext.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[postID] = body
	return nil
}

func (m *memBodies) GetBody(_ context.Context, postID uint) (*models.PostBody, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[postID]
	if !ok {
		return nil, repositories.ErrBodyNotFound
	}
	return &models.PostBody{PostID: postID, Body: doc}, nil
}

func (m *memBodies) DeleteBody(_ context.Context, postID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, postID)
	return nil
}

type env struct {
	db            *gorm.DB
	redis         *miniredis.Miniredis
	cache         *cache.RedisUnreadCache
	bodies        *memBodies
	activities    *ActivityService
	interactions  *InteractionService
	feed          *FeedService
	notifications *NotificationService
	comments      *CommentService
	posts         *PostService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testdb.Open(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	unread := cache.NewRedisUnreadCacheWithClient(client, time.Minute)

	log := zerolog.Nop()
	activities := NewActivityService(db, unread, log)
	bodies := newMemBodies()

	return &env{
		db:           db,
		redis:        mr,
		cache:        unread,
		bodies:       bodies,
		activities:   activities,
		interactions: NewInteractionService(db, activities, log),
		feed: NewFeedService(db, FeedOptions{
			HotWindow:       60,
			ReportThreshold: 5,
			DefaultLimit:    20,
			MaxLimit:        50,
		}),
		notifications: NewNotificationService(db, unread, log, 20, 50),
		comments:      NewCommentService(db, activities, log),
		posts:         NewPostService(db, bodies, activities, log),
	}
}

func (e *env) users(t *testing.T, ids ...uint) {
	t.Helper()
	for _, id := range ids {
		testdb.User(t, e.db, id)
	}
}

func (e *env) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (e *env) recipients(t *testing.T, activityID uint) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, e.db.Model(&models.Notification{}).
		Where("activity_id = ?", activityID).
		Order("recipient_id").
		Pluck("recipient_id", &ids).Error)
	return ids
}

func (e *env) post(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, e.db.Unscoped().First(&p, id).Error)
	return p
}

func (e *env) follow(t *testing.T, follower, followee uint) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Interaction{
		ActorID:  follower,
		TargetID: followee,
		Kind:     models.KindFollowUser,
	}).Error)
}
