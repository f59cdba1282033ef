package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/richtext"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const maxTags = 5

// PostService creates, publishes and deletes posts. Bodies live in the
// document store; everything else is relational.
type PostService struct {
	db         *gorm.DB
	bodies     repositories.PostBodyRepository
	activities *ActivityService
	log        zerolog.Logger
	now        func() time.Time
}

func NewPostService(db *gorm.DB, bodies repositories.PostBodyRepository, activities *ActivityService, log zerolog.Logger) *PostService {
	return &PostService{
		db:         db,
		bodies:     bodies,
		activities: activities,
		log:        log,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create stores a draft, or a published post when req.Publish is set. The
// body is written inside the relational transaction so a failed body write
// leaves no post behind, and a body already written is removed again when a
// later step rolls the transaction back.
func (s *PostService) Create(ctx context.Context, actorID uint, req models.CreatePostRequest) (*models.Post, error) {
	if actorID == 0 {
		return nil, AuthError("authenticated actor required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ValidationError("title is required")
	}
	doc, err := richtext.Parse(req.Body)
	if err != nil {
		return nil, ValidationError("invalid post body")
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: actorID, Title: title, Summary: strings.TrimSpace(req.Summary)}

	var (
		rec   *Recorded
		saved bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewRepos(tx)

		if len(tags) > 0 {
			rows, err := repos.Tags.EnsureTags(tags)
			if err != nil {
				return InternalError("ensure tags", err)
			}
			post.Tags = rows
		}
		if err := repos.Posts.CreatePost(post); err != nil {
			return InternalError("create post", err)
		}
		if err := s.bodies.SaveBody(ctx, post.ID, doc); err != nil {
			return InternalError("save post body", err)
		}
		saved = true
		if !req.Publish {
			return nil
		}
		var err error
		rec, err = s.publishTx(repos, post, doc)
		return err
	})
	if err != nil {
		if saved {
			if derr := s.bodies.DeleteBody(ctx, post.ID); derr != nil {
				s.log.Warn().Err(derr).Uint("post_id", post.ID).Msg("drop body of rolled back post")
			}
		}
		return nil, err
	}

	s.activities.AfterCommit(ctx, rec)
	return post, nil
}

// Publish makes a draft visible and announces it to the author's followers.
// Publishing a published post is a no-op success.
func (s *PostService) Publish(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	if actorID == 0 {
		return nil, AuthError("authenticated actor required")
	}

	doc := richtext.Node{Type: "doc"}
	body, err := s.bodies.GetBody(ctx, postID)
	switch {
	case err == nil:
		doc = body.Body
	case errors.Is(err, repositories.ErrBodyNotFound):
	default:
		return nil, InternalError("load post body", err)
	}

	var (
		post *models.Post
		rec  *Recorded
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewRepos(tx)
		var err error
		post, err = repos.Posts.GetPostByID(postID)
		if err != nil {
			return translate(err, "post")
		}
		if post.AuthorID != actorID {
			return ForbiddenError("only the author can publish this post")
		}
		if post.Published {
			return nil
		}
		rec, err = s.publishTx(repos, post, doc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activities.AfterCommit(ctx, rec)
	return post, nil
}

func (s *PostService) publishTx(repos *repositories.Repos, post *models.Post, doc richtext.Node) (*Recorded, error) {
	at := s.now()
	changed, err := repos.Posts.PublishPost(post.ID, at)
	if err != nil {
		return nil, InternalError("publish post", err)
	}
	if !changed {
		return nil, nil
	}
	post.Published = true
	post.PublishedAt = &at

	return s.activities.RecordTx(repos, RecordInput{
		ActorID:  post.AuthorID,
		Type:     models.ActivityPostPublished,
		Target:   Target{Type: models.TargetPost, ID: post.ID},
		Message:  truncate(post.Title, snippetLength),
		Mentions: richtext.ExtractMentions(doc),
	})
}

// Delete soft deletes the actor's own post and drops its body
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	if actorID == 0 {
		return AuthError("authenticated actor required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewRepos(tx)
		author, err := repos.Posts.GetAuthorID(postID)
		if err != nil {
			return translate(err, "post")
		}
		if author != actorID {
			return ForbiddenError("only the author can delete this post")
		}
		return translate(repos.Posts.DeletePost(postID), "post")
	})
	if err != nil {
		return err
	}

	if err := s.bodies.DeleteBody(ctx, postID); err != nil {
		s.log.Warn().Err(err).Uint("post_id", postID).Msg("delete post body")
	}
	return nil
}

// Body returns the stored document of a post, or an empty document
func (s *PostService) Body(ctx context.Context, postID uint) (richtext.Node, error) {
	body, err := s.bodies.GetBody(ctx, postID)
	if errors.Is(err, repositories.ErrBodyNotFound) {
		return richtext.Node{Type: "doc"}, nil
	}
	if err != nil {
		return richtext.Node{}, InternalError("load post body", err)
	}
	return body.Body, nil
}

// normalizeTags lowercases, trims and dedupes tag names
func normalizeTags(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if len(n) > 50 {
			return nil, ValidationError("tag %q is too long", n)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) > maxTags {
		return nil, ValidationError("at most %d tags are allowed", maxTags)
	}
	sort.Strings(out)
	return out, nil
}
