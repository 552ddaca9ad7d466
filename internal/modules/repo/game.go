package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type GameRepo interface {
	Create(ctx context.Context, g *model.Game) error
	GetByName(ctx context.Context, name string) (*model.Game, error)
	List(ctx context.Context) ([]*model.Game, error)
	Save(ctx context.Context, g *model.Game) error
	// SetDefault marks name as the default game and clears the flag on
	// every other game.
	SetDefault(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	// RemoveCategory saves g and moves the game's projects in category to
	// Other in one transaction.
	RemoveCategory(ctx context.Context, g *model.Game, category string) (int64, error)
}

type gameRepo struct{ db *gorm.DB }

func NewGameRepo(db *gorm.DB) GameRepo {
	return &gameRepo{db: db}
}

func (r *gameRepo) Create(ctx context.Context, g *model.Game) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *gameRepo) GetByName(ctx context.Context, name string) (*model.Game, error) {
	var g model.Game
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gameRepo) List(ctx context.Context) ([]*model.Game, error) {
	var games []*model.Game
	return games, r.db.WithContext(ctx).Order("id ASC").Find(&games).Error
}

func (r *gameRepo) Save(ctx context.Context, g *model.Game) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *gameRepo) SetDefault(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Game{}).Where("name = ?", name).Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.Game{}).Where("name <> ?", name).Update("is_default", false).Error
	})
}

func (r *gameRepo) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Game{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gameRepo) RemoveCategory(ctx context.Context, g *model.Game, category string) (int64, error) {
	var moved int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(g).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Project{}).
			Where("game_name = ? AND category = ?", g.Name, category).
			Update("category", model.CategoryOther)
		moved = res.RowsAffected
		return res.Error
	})
	return moved, err
}
