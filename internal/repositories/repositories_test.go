package repositories

import (
	"testing"
	"time"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInteractionInsertIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	repo := NewPostgresInteractionRepository(db)

	first, err := repo.Insert(1, 10, models.KindLikePost)
	require.NoError(t, err)
	assert.Equal(t, Inserted, first)

	second, err := repo.Insert(1, 10, models.KindLikePost)
	require.NoError(t, err)
	assert.Equal(t, AlreadyExists, second)

	// same pair, different kind is a different edge
	other, err := repo.Insert(1, 10, models.KindBookmarkPost)
	require.NoError(t, err)
	assert.Equal(t, Inserted, other)

	removed, err := repo.Delete(1, 10, models.KindLikePost)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	removed, err = repo.Delete(1, 10, models.KindLikePost)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestInteractionLookups(t *testing.T) {
	db := testdb.Open(t)
	repo := NewPostgresInteractionRepository(db)
	for _, actor := range []uint{3, 1, 2} {
		_, err := repo.Insert(actor, 9, models.KindFollowUser)
		require.NoError(t, err)
	}
	_, err := repo.Insert(1, 7, models.KindLikePost)
	require.NoError(t, err)

	followers, err := repo.ActorIDs(9, models.KindFollowUser)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, followers)

	targets, err := repo.TargetsOf(1, models.KindLikePost, []uint{6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{7: true}, targets)

	empty, err := repo.TargetsOf(0, models.KindLikePost, []uint{7})
	require.NoError(t, err)
	assert.Empty(t, empty)

	ok, err := repo.Exists(2, 9, models.KindFollowUser)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCounters(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, 1)
	testdb.Post(t, db, 5, 1)
	counters := NewPostgresCounterRepository(db)

	require.NoError(t, counters.Increment(PostLikes, 5))
	require.NoError(t, counters.Decrement(PostLikes, 5))
	require.NoError(t, counters.Decrement(PostLikes, 5), "a counter at zero stays there")
	n, err := counters.Value(PostLikes, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.ErrorIs(t, counters.Increment(PostLikes, 404), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, counters.Decrement(PostLikes, 404), gorm.ErrRecordNotFound)

	require.NoError(t, db.Delete(&models.Post{}, 5).Error)
	assert.ErrorIs(t, counters.Increment(PostLikes, 5), gorm.ErrRecordNotFound, "soft deleted rows are gone")
}

func TestEnsureTags(t *testing.T) {
	db := testdb.Open(t)
	tags := NewPostgresTagRepository(db)

	first, err := tags.EnsureTags([]string{"go", "sql"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := tags.EnsureTags([]string{"sql", "rust", "go"})
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, "go", second[0].Name)
	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	got, err := tags.GetTagByName("rust")
	require.NoError(t, err)
	assert.Equal(t, "rust", got.Name)
}

func TestPostFilter(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, 1)
	testdb.User(t, db, 2)
	testdb.Post(t, db, 1, 1)
	testdb.Post(t, db, 2, 2)
	testdb.Post(t, db, 3, 1)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", 3).UpdateColumn("report_count", 9).Error)

	posts := NewPostgresPostRepository(db)
	list := func(f PostFilter) []uint {
		rows, err := posts.ListPosts(PostQuery{Filter: f, Sort: "new", Limit: 10})
		require.NoError(t, err)
		ids := make([]uint, 0, len(rows))
		for _, p := range rows {
			ids = append(ids, p.ID)
		}
		return ids
	}

	assert.ElementsMatch(t, []uint{1, 2}, list(FeedEligible(5)))
	assert.Equal(t, []uint{1}, list(FeedEligible(5).With(ByAuthor(1))))
	assert.ElementsMatch(t, []uint{1, 2, 3}, list(PostFilter{Published()}))

	_, err := PostFilter{{Kind: PredicateKind(99)}}.Apply(db)
	assert.Error(t, err)
}

func TestPublishPostOnce(t *testing.T) {
	db := testdb.Open(t)
	testdb.User(t, db, 1)
	draft := &models.Post{AuthorID: 1, Title: "draft"}
	posts := NewPostgresPostRepository(db)
	require.NoError(t, posts.CreatePost(draft))

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	changed, err := posts.PublishPost(draft.ID, at)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = posts.PublishPost(draft.ID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := posts.GetPostByID(draft.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, at.Equal(*got.PublishedAt))
}

func TestNotificationFanoutInsert(t *testing.T) {
	db := testdb.Open(t)
	activity := &models.Activity{ActorID: 1, Type: models.ActivityPostLiked, TargetType: models.TargetPost, TargetID: 1}
	require.NoError(t, NewPostgresActivityRepository(db).CreateActivity(activity))
	notifications := NewPostgresNotificationRepository(db)

	n, err := notifications.InsertForRecipients(activity.ID, []uint{2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = notifications.InsertForRecipients(activity.ID, []uint{3, 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "an existing (recipient, activity) pair is skipped")

	unread, err := notifications.GetUnreadCount(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
