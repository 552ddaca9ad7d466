package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type EditRequestRepo interface {
	Create(ctx context.Context, e *model.EditRequest) error
	Get(ctx context.Context, id uint) (*model.EditRequest, error)
	FindPending(ctx context.Context, objectID uint, table model.ObjectTable, submitterID uint) (*model.EditRequest, error)
	// UpdatePendingObject replaces the payload of a request that is still
	// pending. It returns false when the request was decided meanwhile.
	UpdatePendingObject(ctx context.Context, e *model.EditRequest) (bool, error)
	ListPending(ctx context.Context, gameName string, afterID uint, limit int) ([]*model.EditRequest, error)
	List(ctx context.Context) ([]*model.EditRequest, error)
	// Decide records the outcome of a pending request and, in the same
	// transaction, saves target when it is non-nil. It returns false without
	// writing anything when the request was already decided.
	Decide(ctx context.Context, id uint, approved bool, approverID uint, target any) (bool, error)
}

type editRequestRepo struct{ db *gorm.DB }

func NewEditRequestRepo(db *gorm.DB) EditRequestRepo {
	return &editRequestRepo{db: db}
}

func (r *editRequestRepo) Create(ctx context.Context, e *model.EditRequest) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *editRequestRepo) Get(ctx context.Context, id uint) (*model.EditRequest, error) {
	var e model.EditRequest
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *editRequestRepo) FindPending(ctx context.Context, objectID uint, table model.ObjectTable, submitterID uint) (*model.EditRequest, error) {
	var e model.EditRequest
	err := r.db.WithContext(ctx).
		Where("object_id = ? AND object_table_name = ? AND submitter_id = ? AND approved IS NULL", objectID, table, submitterID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *editRequestRepo) UpdatePendingObject(ctx context.Context, e *model.EditRequest) (bool, error) {
	res := r.db.WithContext(ctx).Model(e).
		Where("approved IS NULL").
		Select("Object", "UpdatedAt").
		Updates(e)
	return res.RowsAffected > 0, res.Error
}

// ListPending pages oldest first. Ids grow with creation time, so the id
// alone positions the page.
func (r *editRequestRepo) ListPending(ctx context.Context, gameName string, afterID uint, limit int) ([]*model.EditRequest, error) {
	q := r.db.WithContext(ctx).Where("approved IS NULL")
	if gameName != "" {
		q = q.Where("game_name = ?", gameName)
	}
	if afterID != 0 {
		q = q.Where("id > ?", afterID)
	}
	q = q.Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*model.EditRequest
	return out, q.Find(&out).Error
}

func (r *editRequestRepo) List(ctx context.Context) ([]*model.EditRequest, error) {
	var out []*model.EditRequest
	return out, r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
}

func (r *editRequestRepo) Decide(ctx context.Context, id uint, approved bool, approverID uint, target any) (bool, error) {
	decided := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if target != nil {
			// the guard below rolls this back when the request is terminal
			if err := saveLive(tx, target); err != nil {
				return err
			}
		}
		res := tx.Model(&model.EditRequest{}).
			Where("id = ? AND approved IS NULL", id).
			Updates(map[string]any{
				"approved":    approved,
				"approver_id": approverID,
				"updated_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyDecided
		}
		decided = true
		return nil
	})
	if errors.Is(err, errAlreadyDecided) {
		return false, nil
	}
	return decided, err
}

var errAlreadyDecided = errors.New("edit request already decided")
