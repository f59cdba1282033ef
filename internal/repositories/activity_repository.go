package repositories

import (
	"github.com/anonto42/nano-midea/community/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRepository persists the immutable activity log and its mentions
type ActivityRepository interface {
	CreateActivity(activity *models.Activity) error
	InsertMentions(activityID uint, userIDs []uint) (int64, error)
	MentionedUserIDs(activityID uint) ([]uint, error)
}

type postgresActivityRepository struct {
	db *gorm.DB
}

func NewPostgresActivityRepository(db *gorm.DB) ActivityRepository {
	return &postgresActivityRepository{db: db}
}

func (r *postgresActivityRepository) CreateActivity(activity *models.Activity) error {
	return r.db.Create(activity).Error
}

// InsertMentions links users to the activity, skipping links that already
// exist. It returns the number of new rows.
func (r *postgresActivityRepository) InsertMentions(activityID uint, userIDs []uint) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	rows := make([]models.ActivityMention, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.ActivityMention{ActivityID: activityID, UserID: id})
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *postgresActivityRepository) MentionedUserIDs(activityID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ActivityMention{}).
		Where("activity_id = ?", activityID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}
