package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id uint) (*model.Project, error)
	List(ctx context.Context) ([]*model.Project, error)
	ListByGame(ctx context.Context, gameName string) ([]*model.Project, error)
	// NameTaken compares case-insensitively and ignores excludeID.
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	CountExisting(ctx context.Context, ids []uint) (int64, error)
	Save(ctx context.Context, p *model.Project) error
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) Get(ctx context.Context, id uint) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]*model.Project, error) {
	var ps []*model.Project
	return ps, r.db.WithContext(ctx).Order("id ASC").Find(&ps).Error
}

func (r *projectRepo) ListByGame(ctx context.Context, gameName string) ([]*model.Project, error) {
	var ps []*model.Project
	return ps, r.db.WithContext(ctx).Where("game_name = ?", gameName).Order("id ASC").Find(&ps).Error
}

func (r *projectRepo) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), excludeID).
		Count(&n).Error
	return n > 0, err
}

func (r *projectRepo) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.Project{}).Where("id IN ?", ids).Count(&n).Error
}

func (r *projectRepo) Save(ctx context.Context, p *model.Project) error {
	return saveLive(r.db.WithContext(ctx), p)
}
