package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/anonto42/nano-midea/community/internal/cache"
	"github.com/anonto42/nano-midea/community/internal/commenttree"
	"github.com/anonto42/nano-midea/community/internal/handlers"
	"github.com/anonto42/nano-midea/community/internal/middleware"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/richtext"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/anonto42/nano-midea/community/internal/testdb"
	"github.com/anonto42/nano-midea/community/internal/validators"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-test"

type bodies struct {
	mu   sync.Mutex
	docs map[uint]richtext.Node
}

func (b *bodies) SaveBody(_ context.Context, postID uint, body richtext.Node) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[postID] = body
	return nil
}

func (b *bodies) GetBody(_ context.Context, postID uint) (*models.PostBody, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, ok := b.docs[postID]
	if !ok {
		return nil, repositories.ErrBodyNotFound
	}
	return &models.PostBody{PostID: postID, Body: doc}, nil
}

func (b *bodies) DeleteBody(_ context.Context, postID uint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.docs, postID)
	return nil
}

type server struct {
	e *echo.Echo
}

func newServer(t *testing.T, userIDs ...uint) *server {
	t.Helper()
	db := testdb.Open(t)
	for _, id := range userIDs {
		testdb.User(t, db, id)
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupRoutes(e, Deps{
		DB:     db,
		Bodies: &bodies{docs: map[uint]richtext.Node{}},
		Unread: cache.Noop{},
		Auth:   middleware.JWTAuthMiddleware(secret),
		Feed:   services.FeedOptions{HotWindow: 60, ReportThreshold: 5, DefaultLimit: 20, MaxLimit: 50},
		Log:    zerolog.Nop(),
	})
	return &server{e: e}
}

// do sends a request as userID (0 sends no token) and decodes the response into out
func (s *server) do(t *testing.T, method, path string, userID uint, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != 0 {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JwtCustomClaims{UserID: userID}).SignedString([]byte(secret))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type toggleResponse struct {
	Applied  bool  `json:"applied"`
	NewCount int64 `json:"new_count"`
}

type pageMeta struct {
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type feedResponse struct {
	Data struct {
		Posts []handlers.EnrichedPost `json:"posts"`
	} `json:"data"`
	Meta pageMeta `json:"meta"`
}

type notificationsResponse struct {
	Data struct {
		Notifications []handlers.EnrichedNotification `json:"notifications"`
	} `json:"data"`
	Meta pageMeta `json:"meta"`
}

type countResponse struct {
	Data struct {
		Count int64 `json:"count"`
	} `json:"data"`
}

const docWithMention = `{"type":"doc","content":[{"type":"mention","attrs":{"id":"3"}}]}`

func (s *server) publish(t *testing.T, author uint, title string) models.Post {
	t.Helper()
	var post models.Post
	code := s.do(t, http.MethodPost, "/api/v1/posts", author, map[string]any{
		"title":   title,
		"body":    json.RawMessage(docWithMention),
		"tags":    []string{"go"},
		"publish": true,
	}, &post)
	require.Equal(t, http.StatusCreated, code)
	return post
}

func TestHealthAndAuth(t *testing.T) {
	s := newServer(t, 1)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", 0, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/feed", 0, nil, nil))

	var me models.User
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/profile", 1, nil, &me))
	assert.Equal(t, uint(1), me.ID)
}

func TestPublishFansOutToFollowersAndMentions(t *testing.T) {
	s := newServer(t, 1, 2, 3)

	var follow toggleResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/1/follow", 2, nil, &follow))
	assert.Equal(t, toggleResponse{Applied: true, NewCount: 1}, follow)

	post := s.publish(t, 1, "hello")
	assert.True(t, post.Published)

	for _, recipient := range []uint{2, 3} {
		var list notificationsResponse
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications", recipient, nil, &list))
		require.Len(t, list.Data.Notifications, 1, "recipient %d", recipient)
		n := list.Data.Notifications[0]
		assert.Equal(t, models.ActivityPostPublished, n.Activity.Type)
		assert.Equal(t, uint(1), n.Actor.ID)
		assert.Nil(t, list.Meta.NextCursor)
	}

	// the author hears about the follow, never about their own post
	var mine notificationsResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications", 1, nil, &mine))
	require.Len(t, mine.Data.Notifications, 1)
	assert.Equal(t, models.ActivityUserFollowed, mine.Data.Notifications[0].Activity.Type)
	assert.Equal(t, uint(2), mine.Data.Notifications[0].Actor.ID)
}

func TestLikeToggleAndFeedFlags(t *testing.T) {
	s := newServer(t, 1, 2, 3)
	post := s.publish(t, 1, "likeable")
	likes := "/api/v1/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/likes"

	var res toggleResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, likes, 2, nil, &res))
	assert.Equal(t, toggleResponse{Applied: true, NewCount: 1}, res)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, likes, 2, nil, &res))
	assert.Equal(t, toggleResponse{Applied: false, NewCount: 1}, res)

	var feed feedResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/feed?sort=hot", 2, nil, &feed))
	require.Len(t, feed.Data.Posts, 1)
	assert.True(t, feed.Data.Posts[0].IsLiked)
	assert.False(t, feed.Data.Posts[0].IsBookmarked)
	assert.Equal(t, uint(1), feed.Data.Posts[0].Author.ID)
	assert.Equal(t, int64(1), feed.Data.Posts[0].LikeCount)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/feed", 3, nil, &feed))
	assert.False(t, feed.Data.Posts[0].IsLiked)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, likes, 2, nil, &res))
	assert.Equal(t, toggleResponse{Applied: true, NewCount: 0}, res)

	var count countResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", 1, nil, &count))
	assert.Equal(t, int64(1), count.Data.Count)
}

func TestFeedPagination(t *testing.T) {
	s := newServer(t, 1)
	for i := 0; i < 5; i++ {
		s.publish(t, 1, "post "+strconv.Itoa(i))
	}

	var (
		seen []uint
		path = "/api/v1/feed?sort=new&limit=2"
	)
	for {
		var page feedResponse
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, 1, nil, &page))
		for _, p := range page.Data.Posts {
			seen = append(seen, p.ID)
		}
		if page.Meta.NextCursor == nil {
			assert.False(t, page.Meta.HasNextPage)
			break
		}
		path = "/api/v1/feed?sort=new&limit=2&cursor=" + *page.Meta.NextCursor
	}
	assert.Len(t, seen, 5)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/feed?cursor=garbage", 1, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/feed?sort=sideways", 1, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/feed?limit=ten", 1, nil, nil))
}

func TestCommentThread(t *testing.T) {
	s := newServer(t, 1, 2, 3)
	post := s.publish(t, 1, "discuss")
	comments := "/api/v1/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/comments"

	var top models.Comment
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, comments, 2, map[string]any{"content": "first"}, &top))
	var reply models.Comment
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, comments, 3, map[string]any{"content": "reply", "parent_id": top.ID}, &reply))

	var thread struct {
		Data []commenttree.Node `json:"data"`
		Meta struct {
			TotalItems int `json:"totalItems"`
		} `json:"meta"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, comments, 1, nil, &thread))
	require.Len(t, thread.Data, 1)
	require.Len(t, thread.Data[0].Replies, 1)
	assert.Equal(t, reply.ID, thread.Data[0].Replies[0].ID)
	assert.Equal(t, 2, thread.Meta.TotalItems)

	path := "/api/v1/comments/" + strconv.FormatUint(uint64(reply.ID), 10)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, path, 2, nil, nil))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, 3, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, comments, 2, map[string]any{"content": ""}, nil))
}

func TestPostErrors(t *testing.T) {
	s := newServer(t, 1, 2)
	post := s.publish(t, 1, "mine")
	path := "/api/v1/posts/" + strconv.FormatUint(uint64(post.ID), 10)

	var detail handlers.PostDetail
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, 2, nil, &detail))
	assert.Equal(t, "mine", detail.Title)
	assert.Equal(t, []uint{3}, richtext.ExtractMentions(detail.Body))

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, path, 2, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/posts/999", 2, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/posts/abc", 2, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/posts", 1, map[string]any{"title": ""}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/users/1/follow", 1, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/posts/999/bookmarks", 2, nil, nil))

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, 1, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, 1, nil, nil))
}

func TestNotificationReadState(t *testing.T) {
	s := newServer(t, 1, 2, 3)
	post := s.publish(t, 1, "x")
	for _, actor := range []uint{2, 3} {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/bookmarks", actor, nil, nil))
	}

	var list notificationsResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications?limit=1", 1, nil, &list))
	require.Len(t, list.Data.Notifications, 1)
	require.NotNil(t, list.Meta.NextCursor)
	first := strconv.FormatUint(uint64(list.Data.Notifications[0].ID), 10)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/v1/notifications/"+first+"/read", 2, nil, nil))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/notifications/"+first+"/read", 1, nil, nil))

	var count countResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", 1, nil, &count))
	assert.Equal(t, int64(1), count.Data.Count)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications?include_read=true", 1, nil, &list))
	assert.Len(t, list.Data.Notifications, 2)

	var grouped struct {
		Data struct {
			Notifications map[string][]handlers.EnrichedNotification `json:"notifications"`
			UnreadCount   int64                                      `json:"unreadCount"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications/grouped?include_read=true", 1, nil, &grouped))
	assert.Len(t, grouped.Data.Notifications["today"], 2)
	assert.Equal(t, int64(1), grouped.Data.UnreadCount)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/v1/notifications/read-all", 1, nil, nil))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications", 1, nil, &list))
	assert.Empty(t, list.Data.Notifications)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/notifications/"+first, 1, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/notifications/"+first, 1, nil, nil))
}

func TestFollowTagAndAuthorFeed(t *testing.T) {
	s := newServer(t, 1, 2)
	s.publish(t, 1, "tagged")

	var res toggleResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/tags/go/follow", 2, nil, &res))
	assert.Equal(t, toggleResponse{Applied: true, NewCount: 1}, res)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/tags/nope/follow", 2, nil, nil))

	var feed feedResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/feed?author=1&tag=go", 2, nil, &feed))
	assert.Len(t, feed.Data.Posts, 1)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/feed?author=2", 2, nil, &feed))
	assert.Empty(t, feed.Data.Posts)
}
