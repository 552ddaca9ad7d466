package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type GameVersionRepo interface {
	// Create makes gv the default when it is the first version of its game.
	Create(ctx context.Context, gv *model.GameVersion) error
	Get(ctx context.Context, id uint) (*model.GameVersion, error)
	GetMany(ctx context.Context, ids []uint) ([]*model.GameVersion, error)
	ListByGame(ctx context.Context, gameName string) ([]*model.GameVersion, error)
	List(ctx context.Context) ([]*model.GameVersion, error)
	SetDefault(ctx context.Context, id uint) error
	// SaveLinks persists the linked ids of every given version atomically.
	SaveLinks(ctx context.Context, gvs []*model.GameVersion) error
}

type gameVersionRepo struct{ db *gorm.DB }

func NewGameVersionRepo(db *gorm.DB) GameVersionRepo {
	return &gameVersionRepo{db: db}
}

func (r *gameVersionRepo) Create(ctx context.Context, gv *model.GameVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.GameVersion{}).Where("game_name = ?", gv.GameName).Count(&n).Error; err != nil {
			return err
		}
		gv.DefaultVersion = n == 0
		if gv.LinkedVersionIDs == nil {
			gv.LinkedVersionIDs = []uint{}
		}
		return tx.Create(gv).Error
	})
}

func (r *gameVersionRepo) Get(ctx context.Context, id uint) (*model.GameVersion, error) {
	var gv model.GameVersion
	if err := r.db.WithContext(ctx).First(&gv, id).Error; err != nil {
		return nil, err
	}
	return &gv, nil
}

func (r *gameVersionRepo) GetMany(ctx context.Context, ids []uint) ([]*model.GameVersion, error) {
	var gvs []*model.GameVersion
	if len(ids) == 0 {
		return gvs, nil
	}
	return gvs, r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&gvs).Error
}

func (r *gameVersionRepo) ListByGame(ctx context.Context, gameName string) ([]*model.GameVersion, error) {
	var gvs []*model.GameVersion
	return gvs, r.db.WithContext(ctx).Where("game_name = ?", gameName).Order("id ASC").Find(&gvs).Error
}

func (r *gameVersionRepo) List(ctx context.Context) ([]*model.GameVersion, error) {
	var gvs []*model.GameVersion
	return gvs, r.db.WithContext(ctx).Order("id ASC").Find(&gvs).Error
}

func (r *gameVersionRepo) SetDefault(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gv model.GameVersion
		if err := tx.First(&gv, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.GameVersion{}).
			Where("game_name = ? AND id <> ?", gv.GameName, id).
			Update("default_version", false).Error; err != nil {
			return err
		}
		return tx.Model(&gv).Update("default_version", true).Error
	})
}

func (r *gameVersionRepo) SaveLinks(ctx context.Context, gvs []*model.GameVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, gv := range gvs {
			if err := tx.Model(gv).Select("LinkedVersionIDs").Updates(gv).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
