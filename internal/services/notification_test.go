package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedNotifications gives user 9 n notifications, one per like on post 55
func seedNotifications(t *testing.T, e *env, n int) {
	t.Helper()
	e.users(t, 9)
	testdb.Post(t, e.db, 55, 9)
	for i := 1; i <= n; i++ {
		actor := uint(100 + i)
		e.users(t, actor)
		_, err := e.interactions.ToggleOn(context.Background(), actor, 55, models.KindLikePost)
		require.NoError(t, err)
	}
}

func TestNotifications_ListPages(t *testing.T) {
	e := newEnv(t)
	seedNotifications(t, e, 7)
	ctx := context.Background()

	var (
		seen  []uint
		sizes []int
		raw   string
	)
	for {
		page, err := e.notifications.List(ctx, NotificationQuery{RecipientID: 9, Cursor: raw, Limit: 3})
		require.NoError(t, err)
		sizes = append(sizes, len(page.Items))
		for _, n := range page.Items {
			seen = append(seen, n.ID)
			assert.Equal(t, models.ActivityPostLiked, n.Activity.Type, "activity is preloaded")
		}
		if page.NextCursor == nil {
			break
		}
		raw = *page.NextCursor
	}

	assert.Equal(t, []int{3, 3, 1}, sizes)
	require.Len(t, seen, 7)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i-1], seen[i], "newest first")
	}
}

func TestNotifications_IncludeRead(t *testing.T) {
	e := newEnv(t)
	seedNotifications(t, e, 3)
	ctx := context.Background()

	page, err := e.notifications.List(ctx, NotificationQuery{RecipientID: 9})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.NoError(t, e.notifications.MarkRead(ctx, 9, page.Items[0].ID))

	unread, err := e.notifications.List(ctx, NotificationQuery{RecipientID: 9})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 2)

	all, err := e.notifications.List(ctx, NotificationQuery{RecipientID: 9, IncludeRead: true})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.True(t, all.Items[0].IsRead)
	assert.NotNil(t, all.Items[0].ReadAt)
}

func TestNotifications_MalformedCursor(t *testing.T) {
	e := newEnv(t)
	seedNotifications(t, e, 1)

	_, err := e.notifications.List(context.Background(), NotificationQuery{RecipientID: 9, Cursor: "abc"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = e.notifications.List(context.Background(), NotificationQuery{Cursor: ""})
	assert.Equal(t, KindAuth, KindOf(err))
}

func TestNotifications_MarkReadIsIdempotent(t *testing.T) {
	e := newEnv(t)
	seedNotifications(t, e, 1)
	ctx := context.Background()

	page, err := e.notifications.List(ctx, NotificationQuery{RecipientID: 9})
	require.NoError(t, err)
	id := page.Items[0].ID

	require.NoError(t, e.notifications.MarkRead(ctx, 9, id))
	first := e.readAt(t, id)
	require.NoError(t, e.notifications.MarkRead(ctx, 9, id))
	assert.Equal(t, first, e.readAt(t, id), "read_at is set once")

	n, err := e.notifications.UnreadCount(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestNotifications_OwnershipChecks(t *testing.T) {
	e := newEnv(t)
	seedNotifications(t, e, 1)
	e.users(t, 3)
	ctx := context.Background()

	page, err := e.notifications.List(ctx, NotificationQuery{RecipientID: 9})
	require.NoError(t, err)
	id := page.Items[0].ID

	assert.Equal(t, KindForbidden, KindOf(e.notifications.MarkRead(ctx, 3, id)))
	assert.Equal(t, KindForbidden, KindOf(e.notifications.Delete(ctx, 3, id)))
	assert.Equal(t, KindNotFound, KindOf(e.notifications.MarkRead(ctx, 9, 4040)))
	assert.Equal(t, KindAuth, KindOf(e.notifications.Delete(ctx, 0, id)))

	require.NoError(t, e.notifications.Delete(ctx, 9, id))
	assert.Equal(t, int64(0), e.count(t, &models.Notification{}, ""))
	assert.Equal(t, KindNotFound, KindOf(e.notifications.Delete(ctx, 9, id)))
}

func TestNotifications_MarkAllReadAndUnreadCache(t *testing.T) {
	e := newEnv(t)
	seedNotifications(t, e, 4)
	ctx := context.Background()

	n, err := e.notifications.UnreadCount(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// served from the cache until something invalidates it
	var first models.Notification
	require.NoError(t, e.db.Where("recipient_id = ?", 9).Order("id").First(&first).Error)
	require.NoError(t, e.db.Model(&models.Notification{}).Where("id = ?", first.ID).
		UpdateColumn("is_read", true).Error)
	n, err = e.notifications.UnreadCount(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	changed, err := e.notifications.MarkAllRead(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	n, err = e.notifications.UnreadCount(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	changed, err = e.notifications.MarkAllRead(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
}

func (e *env) readAt(t *testing.T, id uint) string {
	t.Helper()
	var n models.Notification
	require.NoError(t, e.db.First(&n, id).Error)
	require.NotNil(t, n.ReadAt)
	return n.ReadAt.String()
}
