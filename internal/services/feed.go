package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/community/internal/cursor"
	"github.com/anonto42/nano-midea/community/internal/feed"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/pkg/metrics"
	"gorm.io/gorm"
)

// FeedOptions are the tunables of the feed
type FeedOptions struct {
	HotWindow       int
	ReportThreshold int64
	DefaultLimit    int
	MaxLimit        int
}

// FeedQuery is one feed page request
type FeedQuery struct {
	Sort     string
	Cursor   string
	Limit    int
	Tag      string
	// AuthorID restricts the feed to one author's posts when non-zero
	AuthorID uint
}

// ViewerFlags are the viewer's own interactions with a set of posts
type ViewerFlags struct {
	Liked      map[uint]bool
	Bookmarked map[uint]bool
}

// FeedService lists posts in new, oldest, top and hot order
type FeedService struct {
	db   *gorm.DB
	opts FeedOptions
	now  func() time.Time
}

func NewFeedService(db *gorm.DB, opts FeedOptions) *FeedService {
	return &FeedService{db: db, opts: opts, now: time.Now}
}

// ListFeed returns one page of eligible posts. A malformed cursor is a
// validation error, never a restart from the top.
func (s *FeedService) ListFeed(ctx context.Context, q FeedQuery) (cursor.Page[models.Post], error) {
	sort, err := cursor.ParseSort(q.Sort)
	if err != nil {
		return cursor.Page[models.Post]{}, ValidationError("%v", err)
	}
	after, err := cursor.Optional(q.Cursor, sort.Shape())
	if err != nil {
		return cursor.Page[models.Post]{}, ValidationError("invalid cursor %q", q.Cursor)
	}
	limit := s.limit(q.Limit)

	filter := repositories.FeedEligible(s.opts.ReportThreshold)
	if tag := strings.ToLower(strings.TrimSpace(q.Tag)); tag != "" {
		filter = filter.With(repositories.Tagged(tag))
	}
	if q.AuthorID != 0 {
		filter = filter.With(repositories.ByAuthor(q.AuthorID))
	}

	timer := metrics.FeedTimer(string(sort))
	defer timer.ObserveDuration()

	posts := repositories.NewRepos(s.db.WithContext(ctx)).Posts
	if sort == cursor.SortHot {
		return s.hot(posts, filter, after, limit)
	}

	rows, err := posts.ListPosts(repositories.PostQuery{
		Filter: filter,
		Sort:   sort,
		After:  after,
		Limit:  limit + 1,
	})
	if err != nil {
		return cursor.Page[models.Post]{}, InternalError("list posts", err)
	}
	return cursor.Window(rows, limit, func(p models.Post) cursor.Cursor {
		return repositories.PostCursor(sort, p)
	}), nil
}

// hot ranks the most recent eligible posts and pages through the ranking.
// The cursor carries the offset reached and the last id returned; the next
// page resumes after that id when it is still ranked, else at the offset.
func (s *FeedService) hot(posts repositories.PostRepository, filter repositories.PostFilter, after *cursor.Cursor, limit int) (cursor.Page[models.Post], error) {
	pool, err := posts.ListPosts(repositories.PostQuery{
		Filter: filter,
		Sort:   cursor.SortNew,
		Limit:  s.opts.HotWindow,
	})
	if err != nil {
		return cursor.Page[models.Post]{}, InternalError("load hot candidates", err)
	}

	byID := make(map[uint]models.Post, len(pool))
	cands := make([]feed.Candidate, 0, len(pool))
	for _, p := range pool {
		byID[p.ID] = p
		cands = append(cands, feed.Candidate{
			ID:            p.ID,
			CreatedAt:     p.CreatedAt,
			LikeCount:     p.LikeCount,
			BookmarkCount: p.BookmarkCount,
			CommentCount:  p.CommentCount,
		})
	}
	ranked := feed.RankHot(cands, s.now())

	start := 0
	if after != nil {
		start = len(ranked)
		if after.Primary >= 0 && after.Primary < int64(len(ranked)) {
			start = int(after.Primary)
		}
		for i, r := range ranked {
			if r.ID == after.ID() {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	items := make([]models.Post, 0, end-start)
	for _, r := range ranked[start:end] {
		items = append(items, byID[r.ID])
	}

	page := cursor.Page[models.Post]{Items: items}
	if end < len(ranked) && len(items) > 0 {
		next := cursor.Composite(int64(end), items[len(items)-1].ID).Encode()
		page.NextCursor = &next
	}
	return page, nil
}

// Flags loads the viewer's likes and bookmarks among postIDs
func (s *FeedService) Flags(ctx context.Context, viewerID uint, postIDs []uint) (ViewerFlags, error) {
	interactions := repositories.NewRepos(s.db.WithContext(ctx)).Interactions
	liked, err := interactions.TargetsOf(viewerID, models.KindLikePost, postIDs)
	if err != nil {
		return ViewerFlags{}, InternalError("load likes", err)
	}
	bookmarked, err := interactions.TargetsOf(viewerID, models.KindBookmarkPost, postIDs)
	if err != nil {
		return ViewerFlags{}, InternalError("load bookmarks", err)
	}
	return ViewerFlags{Liked: liked, Bookmarked: bookmarked}, nil
}

// GetPost returns a live post. Drafts are only visible to their author.
func (s *FeedService) GetPost(ctx context.Context, viewerID, id uint) (*models.Post, error) {
	return visiblePost(repositories.NewRepos(s.db.WithContext(ctx)), viewerID, id)
}

// visiblePost loads a live post as viewerID sees it. A draft is reported
// missing to everyone except its author.
func visiblePost(repos *repositories.Repos, viewerID, postID uint) (*models.Post, error) {
	post, err := repos.Posts.GetPostByID(postID)
	if err != nil {
		return nil, translate(err, "post")
	}
	if !post.Published && post.AuthorID != viewerID {
		return nil, NotFoundError("post not found")
	}
	return post, nil
}

func (s *FeedService) limit(requested int) int {
	if requested == 0 {
		requested = s.opts.DefaultLimit
	}
	return cursor.ClampLimit(requested, s.opts.MaxLimit)
}
