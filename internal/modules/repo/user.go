package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type UserRepo interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByTokenHMAC(ctx context.Context, lookup string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	CountExisting(ctx context.Context, ids []uint) (int64, error)
	SaveRoles(ctx context.Context, u *model.User) error
	SaveToken(ctx context.Context, u *model.User) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByTokenHMAC(ctx context.Context, lookup string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("token_hmac = ?", lookup).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	return users, r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
}

func (r *userRepo) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.User{}).Where("id IN ?", ids).Count(&n).Error
}

func (r *userRepo) SaveRoles(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Model(u).Select("Roles").Updates(u).Error
}

func (r *userRepo) SaveToken(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Model(u).Select("TokenHMAC", "TokenHashPHC").Updates(u).Error
}
