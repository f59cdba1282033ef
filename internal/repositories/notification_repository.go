package repositories

import (
	"time"

	"github.com/anonto42/nano-midea/community/internal/cursor"
	"github.com/anonto42/nano-midea/community/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notificationBatchSize = 500

// NotificationQuery describes one keyset window over a recipient's notifications
type NotificationQuery struct {
	RecipientID uint
	IncludeRead bool
	After       *cursor.Cursor
	Limit       int
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	InsertForRecipients(activityID uint, recipientIDs []uint) (int64, error)
	GetByID(id uint) (*models.Notification, error)
	List(q NotificationQuery) ([]models.Notification, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(id uint, at time.Time) (int64, error)
	MarkAllAsRead(recipientID uint, at time.Time) (int64, error)
	Delete(id uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// InsertForRecipients writes one unread notification per recipient. Rows that
// already exist for (recipient, activity) are skipped; the count of new rows
// is returned.
func (r *postgresNotificationRepository) InsertForRecipients(activityID uint, recipientIDs []uint) (int64, error) {
	if len(recipientIDs) == 0 {
		return 0, nil
	}
	rows := make([]models.Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		rows = append(rows, models.Notification{RecipientID: id, ActivityID: activityID})
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		CreateInBatches(&rows, notificationBatchSize)
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns notifications newest first, with their activity preloaded
func (r *postgresNotificationRepository) List(q NotificationQuery) ([]models.Notification, error) {
	tx := r.db.Where("recipient_id = ?", q.RecipientID)
	if !q.IncludeRead {
		tx = tx.Where("is_read = ?", false)
	}
	if q.After != nil {
		tx = tx.Where("id < ?", q.After.ID())
	}

	var notifications []models.Notification
	err := tx.Preload("Activity").
		Order("id DESC").
		Limit(q.Limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead sets the read state once; an already read row is not updated
func (r *postgresNotificationRepository) MarkAsRead(id uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
