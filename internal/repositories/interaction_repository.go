package repositories

import (
	"github.com/anonto42/nano-midea/community/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepository stores actor→target edges (likes, bookmarks, reports, follows)
type InteractionRepository interface {
	Insert(actorID, targetID uint, kind models.InteractionKind) (InsertResult, error)
	Delete(actorID, targetID uint, kind models.InteractionKind) (int64, error)
	Exists(actorID, targetID uint, kind models.InteractionKind) (bool, error)
	TargetsOf(actorID uint, kind models.InteractionKind, targetIDs []uint) (map[uint]bool, error)
	ActorIDs(targetID uint, kind models.InteractionKind) ([]uint, error)
}

type postgresInteractionRepository struct {
	db *gorm.DB
}

func NewPostgresInteractionRepository(db *gorm.DB) InteractionRepository {
	return &postgresInteractionRepository{db: db}
}

// Insert creates the edge. An existing edge is reported as AlreadyExists and
// leaves the table untouched.
func (r *postgresInteractionRepository) Insert(actorID, targetID uint, kind models.InteractionKind) (InsertResult, error) {
	row := models.Interaction{ActorID: actorID, TargetID: targetID, Kind: kind}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return AlreadyExists, nil
	}
	return Inserted, nil
}

// Delete removes the edge and returns the number of rows removed (0 or 1)
func (r *postgresInteractionRepository) Delete(actorID, targetID uint, kind models.InteractionKind) (int64, error) {
	res := r.db.Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		Delete(&models.Interaction{})
	return res.RowsAffected, res.Error
}

func (r *postgresInteractionRepository) Exists(actorID, targetID uint, kind models.InteractionKind) (bool, error) {
	var count int64
	err := r.db.Model(&models.Interaction{}).
		Where("actor_id = ? AND target_id = ? AND kind = ?", actorID, targetID, kind).
		Count(&count).Error
	return count > 0, err
}

// TargetsOf reports which of targetIDs the actor has an edge of kind to
func (r *postgresInteractionRepository) TargetsOf(actorID uint, kind models.InteractionKind, targetIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(targetIDs))
	if actorID == 0 || len(targetIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.Model(&models.Interaction{}).
		Where("actor_id = ? AND kind = ? AND target_id IN ?", actorID, kind, targetIDs).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// ActorIDs lists every actor with an edge of kind to the target, e.g. the followers of a user
func (r *postgresInteractionRepository) ActorIDs(targetID uint, kind models.InteractionKind) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Interaction{}).
		Where("target_id = ? AND kind = ?", targetID, kind).
		Order("actor_id").
		Pluck("actor_id", &ids).Error
	return ids, err
}
