package repositories

import (
	"github.com/anonto42/nano-midea/community/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines the interface for tag operations
type TagRepository interface {
	GetTagByID(id uint) (*models.Tag, error)
	GetTagByName(name string) (*models.Tag, error)
	EnsureTags(names []string) ([]models.Tag, error)
}

type postgresTagRepository struct {
	db *gorm.DB
}

func NewPostgresTagRepository(db *gorm.DB) TagRepository {
	return &postgresTagRepository{db: db}
}

func (r *postgresTagRepository) GetTagByID(id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *postgresTagRepository) GetTagByName(name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// EnsureTags creates missing tags and returns all of them. Concurrent creators
// of the same name are resolved by the unique name index.
func (r *postgresTagRepository) EnsureTags(names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows := make([]models.Tag, 0, len(names))
	for _, n := range names {
		rows = append(rows, models.Tag{Name: n})
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := r.db.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
