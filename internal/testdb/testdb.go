// Package testdb opens throwaway in-memory databases for package tests.
package testdb

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Open returns a migrated SQLite database private to the test. All
// connections share one in-memory database and writes are serialized by a
// single open connection.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + unsafeName.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared&_busy_timeout=5000"
	cfg := config.GormConfig()
	cfg.Logger = logger.Discard
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// User inserts a user with the given id
func User(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	u := &models.User{ID: id, Name: "user", DisplayName: "User", Email: emailFor(id)}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Post inserts a published post by author with the given id
func Post(t *testing.T, db *gorm.DB, id, authorID uint) *models.Post {
	t.Helper()
	p := &models.Post{ID: id, AuthorID: authorID, Title: "post", Published: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Comment inserts a comment on a post
func Comment(t *testing.T, db *gorm.DB, id, postID, authorID uint, parentID *uint) *models.Comment {
	t.Helper()
	c := &models.Comment{ID: id, PostID: postID, AuthorID: authorID, ParentID: parentID, Content: "comment"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func emailFor(id uint) *string {
	email := "user" + strconv.FormatUint(uint64(id), 10) + "@example.com"
	return &email
}
