package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type VersionRepo interface {
	Create(ctx context.Context, v *model.Version) error
	Get(ctx context.Context, id uint) (*model.Version, error)
	List(ctx context.Context) ([]*model.Version, error)
	ListByProject(ctx context.Context, projectID uint) ([]*model.Version, error)
	ListByGame(ctx context.Context, gameName string) ([]*model.Version, error)
	// ReleaseTaken reports another non-removed version with the same
	// (project, mod version, platform).
	ReleaseTaken(ctx context.Context, projectID uint, modVersion string, platform model.Platform, excludeID uint) (bool, error)
	Save(ctx context.Context, v *model.Version) error
	// SaveSupportedGameVersions writes only the supported game-version list.
	SaveSupportedGameVersions(ctx context.Context, v *model.Version) error
	IncrementDownloads(ctx context.Context, id uint) error
}

type versionRepo struct{ db *gorm.DB }

func NewVersionRepo(db *gorm.DB) VersionRepo {
	return &versionRepo{db: db}
}

func (r *versionRepo) Create(ctx context.Context, v *model.Version) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *versionRepo) Get(ctx context.Context, id uint) (*model.Version, error) {
	var v model.Version
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) List(ctx context.Context) ([]*model.Version, error) {
	var vs []*model.Version
	return vs, r.db.WithContext(ctx).Order("id ASC").Find(&vs).Error
}

func (r *versionRepo) ListByProject(ctx context.Context, projectID uint) ([]*model.Version, error) {
	var vs []*model.Version
	return vs, r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&vs).Error
}

func (r *versionRepo) ListByGame(ctx context.Context, gameName string) ([]*model.Version, error) {
	var vs []*model.Version
	err := r.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = versions.project_id").
		Where("projects.game_name = ?", gameName).
		Order("versions.id ASC").
		Find(&vs).Error
	return vs, err
}

func (r *versionRepo) ReleaseTaken(ctx context.Context, projectID uint, modVersion string, platform model.Platform, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Version{}).
		Where("project_id = ? AND mod_version = ? AND platform = ? AND status <> ? AND id <> ?",
			projectID, modVersion, platform, model.StatusRemoved, excludeID).
		Count(&n).Error
	return n > 0, err
}

func (r *versionRepo) Save(ctx context.Context, v *model.Version) error {
	return saveLive(r.db.WithContext(ctx), v)
}

func (r *versionRepo) SaveSupportedGameVersions(ctx context.Context, v *model.Version) error {
	return r.db.WithContext(ctx).Model(v).Select("SupportedGameVersionIDs").Updates(v).Error
}

func (r *versionRepo) IncrementDownloads(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Version{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
