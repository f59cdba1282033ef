package repositories

import (
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/community/internal/cursor"
	"github.com/anonto42/nano-midea/community/internal/models"
	"gorm.io/gorm"
)

// PostQuery describes one keyset window over the posts table
type PostQuery struct {
	Filter PostFilter
	Sort   cursor.Sort
	After  *cursor.Cursor
	Limit  int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPostByID(id uint) (*models.Post, error)
	GetAuthorID(id uint) (uint, error)
	PublishPost(id uint, at time.Time) (bool, error)
	DeletePost(id uint) error
	ListPosts(q PostQuery) ([]models.Post, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost creates a post together with its tag links
func (r *PostgresPostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetPostByID retrieves a live post by ID
func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Tags").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetAuthorID returns the author of a live post
func (r *PostgresPostRepository) GetAuthorID(id uint) (uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Post{}).Where("id = ?", id).Pluck("author_id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return ids[0], nil
}

// PublishPost flips a draft to published. It reports false when the post was
// already published.
func (r *PostgresPostRepository) PublishPost(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Post{}).
		Where("id = ? AND published = ?", id, false).
		Updates(map[string]any{"published": true, "published_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeletePost soft deletes a post
func (r *PostgresPostRepository) DeletePost(id uint) error {
	res := r.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPosts returns at most q.Limit posts matching the filter, ordered by the
// sort and starting strictly after q.After.
func (r *PostgresPostRepository) ListPosts(q PostQuery) ([]models.Post, error) {
	tx, err := q.Filter.Apply(r.db.Model(&models.Post{}))
	if err != nil {
		return nil, err
	}

	switch q.Sort {
	case cursor.SortNew, cursor.SortHot, "":
		tx = tx.Order("posts.created_at DESC").Order("posts.id DESC")
		if q.After != nil {
			at := time.UnixMicro(q.After.Primary).UTC()
			tx = tx.Where("posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?)", at, at, q.After.ID())
		}
	case cursor.SortOldest:
		tx = tx.Order("posts.created_at ASC").Order("posts.id ASC")
		if q.After != nil {
			at := time.UnixMicro(q.After.Primary).UTC()
			tx = tx.Where("posts.created_at > ? OR (posts.created_at = ? AND posts.id > ?)", at, at, q.After.ID())
		}
	case cursor.SortTop:
		tx = tx.Order("posts.like_count DESC").Order("posts.id DESC")
		if q.After != nil {
			tx = tx.Where("posts.like_count < ? OR (posts.like_count = ? AND posts.id < ?)",
				q.After.Primary, q.After.Primary, q.After.ID())
		}
	default:
		return nil, fmt.Errorf("unsupported post sort %q", q.Sort)
	}

	var posts []models.Post
	if err := tx.Preload("Tags").Limit(q.Limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// PostCursor is the keyset position of p under sort s
func PostCursor(s cursor.Sort, p models.Post) cursor.Cursor {
	if s == cursor.SortTop {
		return cursor.Composite(p.LikeCount, p.ID)
	}
	return cursor.Composite(p.CreatedAt.UnixMicro(), p.ID)
}
