package service

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/access"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/versioning"
)

// MaxStandardFileSize is the largest zip accepted without the large-files
// capability.
const MaxStandardFileSize int64 = 50 << 20

var zipHashRe = regexp.MustCompile(`^[A-Fa-f0-9]{32,128}$`)

type VersionService interface {
	Create(ctx context.Context, in CreateVersionInput) (*model.Version, error)
	Get(ctx context.Context, id uint, viewer *model.User) (*model.Version, error)
	ListByProject(ctx context.Context, projectID uint, viewer *model.User) ([]*model.Version, error)
	Edit(ctx context.Context, in EditVersionInput) (*EditOutcome, error)
	RecordDownload(ctx context.Context, id uint) error
}

type CreateVersionInput struct {
	ProjectID               uint                `json:"-"`
	ModVersion              string              `json:"mod_version" binding:"required"`
	Platform                model.Platform      `json:"platform" binding:"required"`
	SupportedGameVersionIDs []uint              `json:"supported_game_version_ids" binding:"required"`
	Dependencies            []model.Dependency  `json:"dependencies"`
	ZipHash                 string              `json:"zip_hash" binding:"required"`
	ContentHashes           []model.ContentHash `json:"content_hashes"`
	FileSize                int64               `json:"file_size" binding:"gte=0"`
	Actor                   *model.User         `json:"-"`
}

type EditVersionInput struct {
	ID    uint               `json:"-"`
	Patch model.VersionPatch `json:"patch"`
	Actor *model.User        `json:"-"`
}

type versionService struct {
	projects     repo.ProjectRepo
	versions     repo.VersionRepo
	gameVersions GameVersionService
	queue        EditQueue
	catalog      Catalog
	notifier     Notifier
	log          *zap.Logger
}

func NewVersionService(
	projects repo.ProjectRepo,
	versions repo.VersionRepo,
	gameVersions GameVersionService,
	queue EditQueue,
	catalog Catalog,
	notifier Notifier,
	log *zap.Logger,
) VersionService {
	return &versionService{
		projects:     projects,
		versions:     versions,
		gameVersions: gameVersions,
		queue:        queue,
		catalog:      catalog,
		notifier:     notifier,
		log:          log,
	}
}

func checkPlatform(p model.Platform) error {
	if !p.Valid() {
		return validationf("unknown platform %q", p)
	}
	return nil
}

func (s *versionService) checkRelease(ctx context.Context, projectID uint, modVersion string, platform model.Platform, excludeID uint) error {
	taken, err := s.versions.ReleaseTaken(ctx, projectID, modVersion, platform, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return conflictf("version %s for %s already exists", modVersion, platform)
	}
	return nil
}

// checkDependencies validates ranges and targets. A project may depend on
// another project at most once and never on itself.
func (s *versionService) checkDependencies(ctx context.Context, projectID uint, deps []model.Dependency) ([]model.Dependency, error) {
	out := make([]model.Dependency, 0, len(deps))
	parents := make([]uint, 0, len(deps))
	for _, d := range deps {
		if d.ParentID == 0 {
			return nil, validationf("dependency is missing a project id")
		}
		if d.ParentID == projectID {
			return nil, validationf("a project cannot depend on itself")
		}
		if slices.Contains(parents, d.ParentID) {
			return nil, conflictf("duplicate dependency on project %d", d.ParentID)
		}
		sv := strings.TrimSpace(d.SV)
		if _, err := versioning.ParseRange(sv); err != nil {
			return nil, validationf("%v", err)
		}
		parents = append(parents, d.ParentID)
		out = append(out, model.Dependency{ParentID: d.ParentID, SV: sv})
	}
	if len(parents) == 0 {
		return out, nil
	}
	n, err := s.projects.CountExisting(ctx, parents)
	if err != nil {
		return nil, err
	}
	if n != int64(len(parents)) {
		return nil, conflictf("dependency references a project that does not exist")
	}
	return out, nil
}

func (s *versionService) Create(ctx context.Context, in CreateVersionInput) (*model.Version, error) {
	p, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	if !canAuthor(in.Actor, p.GameName, p.AuthorIDs) {
		return nil, ErrForbidden
	}
	if p.Status == model.StatusRemoved {
		return nil, conflictf("project %d is removed", p.ID)
	}
	if in.FileSize > MaxStandardFileSize && !access.HasCapability(in.Actor, access.CapLargeFiles, access.Game(p.GameName)) {
		return nil, validationf("file is larger than %d bytes", MaxStandardFileSize)
	}
	if !zipHashRe.MatchString(in.ZipHash) {
		return nil, validationf("invalid zip hash")
	}

	modVersion, err := versioning.NormalizeModVersion(in.ModVersion)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if err := checkPlatform(in.Platform); err != nil {
		return nil, err
	}
	supported, err := s.gameVersions.ExpandSupported(ctx, p.GameName, in.SupportedGameVersionIDs)
	if err != nil {
		return nil, err
	}
	deps, err := s.checkDependencies(ctx, p.ID, in.Dependencies)
	if err != nil {
		return nil, err
	}
	if err := s.checkRelease(ctx, p.ID, modVersion, in.Platform, 0); err != nil {
		return nil, err
	}

	hashes := in.ContentHashes
	if hashes == nil {
		hashes = []model.ContentHash{}
	}
	v := &model.Version{
		ProjectID:               p.ID,
		AuthorID:                in.Actor.ID,
		ModVersion:              modVersion,
		Platform:                in.Platform,
		SupportedGameVersionIDs: supported,
		Dependencies:            deps,
		ZipHash:                 strings.ToLower(in.ZipHash),
		ContentHashes:           hashes,
		FileSize:                in.FileSize,
		Status:                  model.StatusPrivate,
		StatusHistory:           []model.StatusHistoryEntry{},
		LastUpdatedByID:         in.Actor.ID,
	}
	// the partial unique index settles racing creates
	if err := s.versions.Create(ctx, v); err != nil {
		return nil, storeErr(err, "version")
	}
	s.catalog.Invalidate(ctx, model.TableVersions)

	ev := model.NewEvent(model.EventCreated, model.TableVersions, v.ID, p.GameName, in.Actor.ID)
	ev.Entity = v.Clone()
	s.notifier.Notify(ctx, ev)
	s.log.Info("version created",
		zap.Uint("version_id", v.ID),
		zap.Uint("project_id", p.ID),
		zap.String("mod_version", v.ModVersion),
		zap.String("platform", string(v.Platform)))
	return v, nil
}

func (s *versionService) Get(ctx context.Context, id uint, viewer *model.User) (*model.Version, error) {
	v, err := s.versions.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "version")
	}
	p, err := s.projects.Get(ctx, v.ProjectID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	if !access.CanView(viewer, p.Status, p.AuthorIDs, p.GameName) ||
		!access.CanView(viewer, v.Status, p.AuthorIDs, p.GameName) {
		return nil, notFoundf("version")
	}
	return v, nil
}

func (s *versionService) ListByProject(ctx context.Context, projectID uint, viewer *model.User) ([]*model.Version, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	if !access.CanView(viewer, p.Status, p.AuthorIDs, p.GameName) {
		return nil, notFoundf("project")
	}
	all, err := s.versions.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Version, 0, len(all))
	for _, v := range all {
		if access.CanView(viewer, v.Status, p.AuthorIDs, p.GameName) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *versionService) Edit(ctx context.Context, in EditVersionInput) (*EditOutcome, error) {
	if in.Patch.Empty() {
		return nil, validationf("nothing to edit")
	}
	v, err := s.versions.Get(ctx, in.ID)
	if err != nil {
		return nil, storeErr(err, "version")
	}
	p, err := s.projects.Get(ctx, v.ProjectID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	if !canAuthor(in.Actor, p.GameName, p.AuthorIDs) {
		return nil, ErrForbidden
	}

	patch := in.Patch
	modVersion, platform := v.ModVersion, v.Platform
	if patch.ModVersion != nil {
		if modVersion, err = versioning.NormalizeModVersion(*patch.ModVersion); err != nil {
			return nil, validationf("%v", err)
		}
		patch.ModVersion = &modVersion
	}
	if patch.Platform != nil {
		if err := checkPlatform(*patch.Platform); err != nil {
			return nil, err
		}
		platform = *patch.Platform
	}
	if patch.ModVersion != nil || patch.Platform != nil {
		if err := s.checkRelease(ctx, p.ID, modVersion, platform, v.ID); err != nil {
			return nil, err
		}
	}
	if patch.SupportedGameVersionIDs != nil {
		supported, err := s.gameVersions.ExpandSupported(ctx, p.GameName, *patch.SupportedGameVersionIDs)
		if err != nil {
			return nil, err
		}
		patch.SupportedGameVersionIDs = &supported
	}
	if patch.Dependencies != nil {
		deps, err := s.checkDependencies(ctx, p.ID, *patch.Dependencies)
		if err != nil {
			return nil, err
		}
		patch.Dependencies = &deps
	}

	return s.queue.SubmitVersion(ctx, v, p.GameName, patch, in.Actor)
}

func (s *versionService) RecordDownload(ctx context.Context, id uint) error {
	if err := s.versions.IncrementDownloads(ctx, id); err != nil {
		return storeErr(err, "version")
	}
	return nil
}
