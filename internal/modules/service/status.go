package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/blob"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/lifecycle"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

type StatusService interface {
	SetProjectStatus(ctx context.Context, in SetStatusInput) (*model.Project, error)
	SetVersionStatus(ctx context.Context, in SetStatusInput) (*model.Version, error)
	ProjectRestorable(ctx context.Context, p *model.Project) (bool, error)
	VersionRestorable(ctx context.Context, v *model.Version) (bool, error)
}

type SetStatusInput struct {
	ID     uint         `json:"id"`
	Status model.Status `json:"status"`
	Reason string       `json:"reason"`
	Actor  *model.User  `json:"-"`
}

type statusService struct {
	games    repo.GameRepo
	projects repo.ProjectRepo
	versions repo.VersionRepo
	assets   blob.AssetStore
	catalog  Catalog
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewStatusService(
	games repo.GameRepo,
	projects repo.ProjectRepo,
	versions repo.VersionRepo,
	assets blob.AssetStore,
	catalog Catalog,
	notifier Notifier,
	log *zap.Logger,
) StatusService {
	return &statusService{
		games:    games,
		projects: projects,
		versions: versions,
		assets:   assets,
		catalog:  catalog,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// statusful is the part of a project or version the lifecycle touches.
type statusful struct {
	table      model.ObjectTable
	id         uint
	game       string
	authors    []uint
	status     *model.Status
	history    *[]model.StatusHistoryEntry
	approvedBy **uint
	restorable func() (bool, error)
	save       func(ctx context.Context) error
	snapshot   func() any
}

// authorizeStatus lets authors submit their own work for review. Every other
// move needs approver rights in the game.
func authorizeStatus(actor *model.User, target statusful, to model.Status) error {
	if canApprove(actor, target.game) {
		return nil
	}
	from := *target.status
	submit := to == model.StatusPending && (from == model.StatusPrivate || from == model.StatusUnverified)
	if submit && canAuthor(actor, target.game, target.authors) {
		return nil
	}
	return ErrForbidden
}

func (s *statusService) apply(ctx context.Context, target statusful, in SetStatusInput) error {
	if in.Actor == nil {
		return ErrForbidden
	}
	if !in.Status.Valid() {
		return validationf("unknown status %q", in.Status)
	}
	if err := authorizeStatus(in.Actor, target, in.Status); err != nil {
		return err
	}

	change, err := lifecycle.Plan(*target.status, in.Status, target.restorable)
	switch {
	case errors.Is(err, lifecycle.ErrIllegalTransition), errors.Is(err, lifecycle.ErrNotRestorable):
		return conflictf("%v", err)
	case err != nil:
		return err
	}

	entry := lifecycle.Entry(change.To, in.Reason, in.Actor.ID, s.now())
	*target.status = change.To
	*target.history = append(*target.history, entry)
	if change.SetsApprover {
		id := in.Actor.ID
		*target.approvedBy = &id
	}
	// status and history land in the same row write
	if err := target.save(ctx); err != nil {
		return storeErr(err, string(target.table))
	}

	s.catalog.Invalidate(ctx, target.table)
	telemetry.RecordStatusTransition(ctx, string(target.table), string(change.From), string(change.To))

	ev := model.NewEvent(change.Event, target.table, target.id, target.game, in.Actor.ID)
	ev.Reason = entry.Reason
	ev.Entity = target.snapshot()
	s.notifier.Notify(ctx, ev)

	s.log.Info("status changed",
		zap.String("table", string(target.table)),
		zap.Uint("object_id", target.id),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.Uint("actor_id", in.Actor.ID))
	return nil
}

func (s *statusService) SetProjectStatus(ctx context.Context, in SetStatusInput) (*model.Project, error) {
	p, err := s.projects.Get(ctx, in.ID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	target := statusful{
		table:      model.TableProjects,
		id:         p.ID,
		game:       p.GameName,
		authors:    p.AuthorIDs,
		status:     &p.Status,
		history:    &p.StatusHistory,
		approvedBy: &p.LastApprovedByID,
		restorable: func() (bool, error) { return s.ProjectRestorable(ctx, p) },
		save:       func(ctx context.Context) error { return s.projects.Save(ctx, p) },
		snapshot:   func() any { return p.Clone() },
	}
	if err := s.apply(ctx, target, in); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *statusService) SetVersionStatus(ctx context.Context, in SetStatusInput) (*model.Version, error) {
	v, err := s.versions.Get(ctx, in.ID)
	if err != nil {
		return nil, storeErr(err, "version")
	}
	p, err := s.projects.Get(ctx, v.ProjectID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	target := statusful{
		table:      model.TableVersions,
		id:         v.ID,
		game:       p.GameName,
		authors:    p.AuthorIDs,
		status:     &v.Status,
		history:    &v.StatusHistory,
		approvedBy: &v.LastApprovedByID,
		restorable: func() (bool, error) { return s.VersionRestorable(ctx, v) },
		save:       func(ctx context.Context) error { return s.versions.Save(ctx, v) },
		snapshot:   func() any { return v.Clone() },
	}
	if err := s.apply(ctx, target, in); err != nil {
		return nil, err
	}
	return v, nil
}

// ProjectRestorable is true while the project's game still exists.
func (s *statusService) ProjectRestorable(ctx context.Context, p *model.Project) (bool, error) {
	if p.Status != model.StatusRemoved {
		return false, nil
	}
	if _, err := s.games.GetByName(ctx, p.GameName); err != nil {
		if repo.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// VersionRestorable requires a live parent project and the uploaded zip.
func (s *statusService) VersionRestorable(ctx context.Context, v *model.Version) (bool, error) {
	if v.Status != model.StatusRemoved {
		return false, nil
	}
	p, err := s.projects.Get(ctx, v.ProjectID)
	if err != nil {
		if repo.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if p.Status == model.StatusRemoved {
		return false, nil
	}
	ok, err := s.assets.Exists(ctx, v.AssetKey())
	if err != nil {
		s.log.Warn("asset check failed", zap.Uint("version_id", v.ID), zap.Error(err))
		return false, err
	}
	return ok, nil
}
