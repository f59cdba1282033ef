package repositories

import (
	"fmt"

	"gorm.io/gorm"
)

// Counter names a denormalized count column on a target table
type Counter struct {
	Table      string
	Column     string
	SoftDelete bool
}

var (
	PostLikes      = Counter{Table: "posts", Column: "like_count", SoftDelete: true}
	PostBookmarks  = Counter{Table: "posts", Column: "bookmark_count", SoftDelete: true}
	PostComments   = Counter{Table: "posts", Column: "comment_count", SoftDelete: true}
	PostReports    = Counter{Table: "posts", Column: "report_count", SoftDelete: true}
	CommentLikes   = Counter{Table: "comments", Column: "like_count", SoftDelete: true}
	CommentReplies = Counter{Table: "comments", Column: "reply_count", SoftDelete: true}
	UserFollowers  = Counter{Table: "users", Column: "follower_count", SoftDelete: true}
	TagFollowers   = Counter{Table: "tags", Column: "follower_count"}
)

func (c Counter) target(db *gorm.DB, id uint) *gorm.DB {
	q := db.Table(c.Table).Where("id = ?", id)
	if c.SoftDelete {
		q = q.Where("deleted_at IS NULL")
	}
	return q
}

// CounterRepository adjusts denormalized counters in place. Soft-deleted
// targets are treated as missing.
type CounterRepository interface {
	Increment(c Counter, id uint) error
	Decrement(c Counter, id uint) error
	Value(c Counter, id uint) (int64, error)
}

type postgresCounterRepository struct {
	db *gorm.DB
}

func NewPostgresCounterRepository(db *gorm.DB) CounterRepository {
	return &postgresCounterRepository{db: db}
}

// Increment adds one; gorm.ErrRecordNotFound when the target row is absent
func (r *postgresCounterRepository) Increment(c Counter, id uint) error {
	res := c.target(r.db, id).
		UpdateColumn(c.Column, gorm.Expr(c.Column+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment %s: %w", c.Column, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Decrement subtracts one but never goes below zero. A counter already at
// zero is left alone; a missing target is gorm.ErrRecordNotFound.
func (r *postgresCounterRepository) Decrement(c Counter, id uint) error {
	res := c.target(r.db, id).Where(c.Column + " > 0").
		UpdateColumn(c.Column, gorm.Expr(c.Column+" - ?", 1))
	if res.Error != nil {
		return fmt.Errorf("decrement %s: %w", c.Column, res.Error)
	}
	if res.RowsAffected == 0 {
		_, err := r.Value(c, id)
		return err
	}
	return nil
}

func (r *postgresCounterRepository) Value(c Counter, id uint) (int64, error) {
	var values []int64
	if err := c.target(r.db, id).Pluck(c.Column, &values).Error; err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return values[0], nil
}
