package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/access"
)

const maxProjectNameLen = 64

// Sanitizer strips unsafe markup from user-provided text.
type Sanitizer interface {
	Sanitize(s string) string
}

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	// Get hides projects the viewer may not see behind ErrNotFound.
	Get(ctx context.Context, id uint, viewer *model.User) (*model.Project, error)
	List(ctx context.Context, gameName string, viewer *model.User) ([]*model.Project, error)
	Edit(ctx context.Context, in EditProjectInput) (*EditOutcome, error)
}

type CreateProjectInput struct {
	GameName    string `json:"game_name" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	GitURL      string `json:"git_url"`
	IconFile    string `json:"icon_file_name"`
	// AuthorIDs defaults to the creator when omitted. An explicit empty
	// list is rejected.
	AuthorIDs []uint      `json:"author_ids"`
	Actor     *model.User `json:"-"`
}

type EditProjectInput struct {
	ID    uint               `json:"-"`
	Patch model.ProjectPatch `json:"patch"`
	Actor *model.User        `json:"-"`
}

type projectService struct {
	games     repo.GameRepo
	projects  repo.ProjectRepo
	users     repo.UserRepo
	queue     EditQueue
	catalog   Catalog
	notifier  Notifier
	sanitizer Sanitizer
	log       *zap.Logger
}

func NewProjectService(
	games repo.GameRepo,
	projects repo.ProjectRepo,
	users repo.UserRepo,
	queue EditQueue,
	catalog Catalog,
	notifier Notifier,
	sanitizer Sanitizer,
	log *zap.Logger,
) ProjectService {
	return &projectService{
		games:     games,
		projects:  projects,
		users:     users,
		queue:     queue,
		catalog:   catalog,
		notifier:  notifier,
		sanitizer: sanitizer,
		log:       log,
	}
}

func (s *projectService) checkName(ctx context.Context, name string, excludeID uint) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationf("name is required")
	}
	if len(name) > maxProjectNameLen {
		return "", validationf("name is longer than %d characters", maxProjectNameLen)
	}
	taken, err := s.projects.NameTaken(ctx, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", conflictf("project name %q is already taken", name)
	}
	return name, nil
}

func (s *projectService) checkAuthors(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, validationf("a project needs at least one author")
	}
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(uniq, id) {
			uniq = append(uniq, id)
		}
	}
	n, err := s.users.CountExisting(ctx, uniq)
	if err != nil {
		return nil, err
	}
	if n != int64(len(uniq)) {
		return nil, notFoundf("author")
	}
	return uniq, nil
}

func checkCategory(g *model.Game, category string) (string, error) {
	category = strings.TrimSpace(category)
	if !g.HasCategory(category) {
		return "", conflictf("category %q does not exist for %s", category, g.Name)
	}
	return category, nil
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	if in.Actor == nil || !access.HasCapability(in.Actor, access.CapPost, access.Game(in.GameName)) {
		return nil, ErrForbidden
	}
	g, err := s.games.GetByName(ctx, in.GameName)
	if err != nil {
		return nil, storeErr(err, "game")
	}

	name, err := s.checkName(ctx, in.Name, 0)
	if err != nil {
		return nil, err
	}
	category, err := checkCategory(g, in.Category)
	if err != nil {
		return nil, err
	}
	authors := in.AuthorIDs
	if authors == nil {
		authors = []uint{in.Actor.ID}
	}
	if authors, err = s.checkAuthors(ctx, authors); err != nil {
		return nil, err
	}

	p := &model.Project{
		Name:            name,
		Summary:         s.sanitizer.Sanitize(strings.TrimSpace(in.Summary)),
		Description:     s.sanitizer.Sanitize(in.Description),
		GameName:        g.Name,
		Category:        category,
		AuthorIDs:       authors,
		IconFile:        strings.TrimSpace(in.IconFile),
		GitURL:          strings.TrimSpace(in.GitURL),
		Status:          model.StatusPrivate,
		StatusHistory:   []model.StatusHistoryEntry{},
		LastUpdatedByID: in.Actor.ID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, storeErr(err, "project")
	}
	s.catalog.Invalidate(ctx, model.TableProjects)

	ev := model.NewEvent(model.EventCreated, model.TableProjects, p.ID, p.GameName, in.Actor.ID)
	ev.Entity = p.Clone()
	s.notifier.Notify(ctx, ev)
	s.log.Info("project created", zap.Uint("project_id", p.ID), zap.String("game", p.GameName))
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id uint, viewer *model.User) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	if !access.CanView(viewer, p.Status, p.AuthorIDs, p.GameName) {
		return nil, notFoundf("project")
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, gameName string, viewer *model.User) ([]*model.Project, error) {
	all, err := s.catalog.Projects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Project, 0, len(all))
	for _, p := range all {
		if gameName != "" && p.GameName != gameName {
			continue
		}
		if access.CanView(viewer, p.Status, p.AuthorIDs, p.GameName) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *projectService) Edit(ctx context.Context, in EditProjectInput) (*EditOutcome, error) {
	if in.Patch.Empty() {
		return nil, validationf("nothing to edit")
	}
	p, err := s.projects.Get(ctx, in.ID)
	if err != nil {
		return nil, storeErr(err, "project")
	}
	if !canAuthor(in.Actor, p.GameName, p.AuthorIDs) {
		return nil, ErrForbidden
	}

	patch := in.Patch
	if patch.Name != nil {
		name, err := s.checkName(ctx, *patch.Name, p.ID)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Category != nil {
		g, err := s.games.GetByName(ctx, p.GameName)
		if err != nil {
			return nil, storeErr(err, "game")
		}
		category, err := checkCategory(g, *patch.Category)
		if err != nil {
			return nil, err
		}
		patch.Category = &category
	}
	if patch.AuthorIDs != nil {
		authors, err := s.checkAuthors(ctx, *patch.AuthorIDs)
		if err != nil {
			return nil, err
		}
		patch.AuthorIDs = &authors
	}
	if patch.Summary != nil {
		summary := s.sanitizer.Sanitize(strings.TrimSpace(*patch.Summary))
		patch.Summary = &summary
	}
	if patch.Description != nil {
		description := s.sanitizer.Sanitize(*patch.Description)
		patch.Description = &description
	}

	return s.queue.SubmitProject(ctx, p, patch, in.Actor)
}
