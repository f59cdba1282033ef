package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/nano-midea/community/internal/commenttree"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/richtext"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const snippetLength = 140

// CommentService creates, deletes and threads comments
type CommentService struct {
	db         *gorm.DB
	activities *ActivityService
	log        zerolog.Logger
}

func NewCommentService(db *gorm.DB, activities *ActivityService, log zerolog.Logger) *CommentService {
	return &CommentService{db: db, activities: activities, log: log}
}

// Create adds a comment or reply. The post and parent counters, the
// comment_created activity and its notifications commit together.
func (s *CommentService) Create(ctx context.Context, actorID, postID uint, req models.CreateCommentRequest) (*models.Comment, error) {
	if actorID == 0 {
		return nil, AuthError("authenticated actor required")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ValidationError("comment content is required")
	}
	doc, err := richtext.Parse(req.Body)
	if err != nil {
		return nil, ValidationError("invalid comment body")
	}

	comment := &models.Comment{
		PostID:   postID,
		ParentID: req.ParentID,
		AuthorID: actorID,
		Content:  content,
		Body:     string(req.Body),
	}

	var rec *Recorded
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewRepos(tx)

		post, err := visiblePost(repos, actorID, postID)
		if err != nil {
			return err
		}
		recipients := []uint{post.AuthorID}

		if req.ParentID != nil {
			parent, err := repos.Comments.GetCommentByID(*req.ParentID)
			if err != nil {
				return translate(err, "parent comment")
			}
			if parent.PostID != postID {
				return ValidationError("parent comment belongs to another post")
			}
			recipients = append(recipients, parent.AuthorID)
		}

		if err := repos.Comments.CreateComment(comment); err != nil {
			return InternalError("create comment", err)
		}
		if err := repos.Counters.Increment(repositories.PostComments, postID); err != nil {
			return translate(err, "post")
		}
		if req.ParentID != nil {
			if err := repos.Counters.Increment(repositories.CommentReplies, *req.ParentID); err != nil {
				return translate(err, "parent comment")
			}
		}

		rec, err = s.activities.RecordTx(repos, RecordInput{
			ActorID:    actorID,
			Type:       models.ActivityCommentCreated,
			Target:     Target{Type: models.TargetComment, ID: comment.ID},
			Message:    truncate(content, snippetLength),
			Recipients: recipients,
			Mentions:   richtext.ExtractMentions(doc),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activities.AfterCommit(ctx, rec)
	return comment, nil
}

// Delete soft deletes the actor's own comment and rolls back its counters.
// Counters of targets that are gone already are left alone.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint) error {
	if actorID == 0 {
		return AuthError("authenticated actor required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repositories.NewRepos(tx)

		comment, err := repos.Comments.GetCommentByID(commentID)
		if err != nil {
			return translate(err, "comment")
		}
		if comment.AuthorID != actorID {
			return ForbiddenError("only the author can delete this comment")
		}
		if err := repos.Comments.DeleteComment(commentID); err != nil {
			return translate(err, "comment")
		}
		if err := ignoreMissing(repos.Counters.Decrement(repositories.PostComments, comment.PostID)); err != nil {
			return InternalError("decrement comment count", err)
		}
		if comment.ParentID != nil {
			if err := ignoreMissing(repos.Counters.Decrement(repositories.CommentReplies, *comment.ParentID)); err != nil {
				return InternalError("decrement reply count", err)
			}
		}
		return nil
	})
}

// Forest returns the reply forest of a post in creation order. Comments on a
// draft are only shown to the draft's author.
func (s *CommentService) Forest(ctx context.Context, viewerID, postID uint) ([]*commenttree.Node, error) {
	repos := repositories.NewRepos(s.db.WithContext(ctx))
	if _, err := visiblePost(repos, viewerID, postID); err != nil {
		return nil, err
	}
	comments, err := repos.Comments.GetCommentsByPostID(postID)
	if err != nil {
		return nil, InternalError("load comments", err)
	}
	return commenttree.BuildForest(comments), nil
}

func ignoreMissing(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
