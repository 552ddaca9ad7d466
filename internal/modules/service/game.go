package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/access"
)

type GameService interface {
	Create(ctx context.Context, in CreateGameInput) (*model.Game, error)
	Get(ctx context.Context, name string) (*model.Game, error)
	List(ctx context.Context) ([]*model.Game, error)
	AddCategory(ctx context.Context, in CategoryInput) (*model.Game, error)
	// RemoveCategory moves the category's projects to Other and reports how
	// many moved.
	RemoveCategory(ctx context.Context, in CategoryInput) (*model.Game, int64, error)
	SetDefault(ctx context.Context, name string, actor *model.User) error
	Delete(ctx context.Context, name string, actor *model.User) error
}

type CreateGameInput struct {
	Name        string      `json:"name" binding:"required"`
	DisplayName string      `json:"display_name"`
	Categories  []string    `json:"categories"`
	Actor       *model.User `json:"-"`
}

type CategoryInput struct {
	GameName string      `json:"-"`
	Category string      `json:"category" binding:"required"`
	Actor    *model.User `json:"-"`
}

var gameNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

type gameService struct {
	games   repo.GameRepo
	catalog Catalog
	log     *zap.Logger
}

func NewGameService(games repo.GameRepo, catalog Catalog, log *zap.Logger) GameService {
	return &gameService{games: games, catalog: catalog, log: log}
}

func (s *gameService) Create(ctx context.Context, in CreateGameInput) (*model.Game, error) {
	if !access.HasCapability(in.Actor, access.CapManageGame, access.Sitewide()) {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if !gameNameRe.MatchString(name) {
		return nil, validationf("invalid game name %q", in.Name)
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = name
	}
	cats := make([]string, 0, len(in.Categories))
	for _, c := range in.Categories {
		cats = append(cats, strings.TrimSpace(c))
	}

	g := &model.Game{Name: name, DisplayName: display, Categories: model.NormalizeCategories(cats)}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, storeErr(err, "game")
	}
	s.catalog.Invalidate(ctx, model.TableGames)
	s.log.Info("game created", zap.String("game", g.Name), zap.Uint("actor_id", in.Actor.ID))
	return g, nil
}

func (s *gameService) Get(ctx context.Context, name string) (*model.Game, error) {
	g, err := s.games.GetByName(ctx, name)
	if err != nil {
		return nil, storeErr(err, "game")
	}
	return g, nil
}

func (s *gameService) List(ctx context.Context) ([]*model.Game, error) {
	return s.catalog.Games(ctx)
}

func (s *gameService) loadManaged(ctx context.Context, name string, actor *model.User) (*model.Game, error) {
	g, err := s.games.GetByName(ctx, name)
	if err != nil {
		return nil, storeErr(err, "game")
	}
	if !canManageGame(actor, g.Name) {
		return nil, ErrForbidden
	}
	return g, nil
}

func (s *gameService) AddCategory(ctx context.Context, in CategoryInput) (*model.Game, error) {
	cat := strings.TrimSpace(in.Category)
	if cat == "" {
		return nil, validationf("category is required")
	}
	g, err := s.loadManaged(ctx, in.GameName, in.Actor)
	if err != nil {
		return nil, err
	}
	if g.HasCategory(cat) {
		return nil, conflictf("category %q already exists", cat)
	}
	g.Categories = model.NormalizeCategories(append(g.Categories, cat))
	if err := s.games.Save(ctx, g); err != nil {
		return nil, storeErr(err, "game")
	}
	s.catalog.Invalidate(ctx, model.TableGames)
	return g, nil
}

func (s *gameService) RemoveCategory(ctx context.Context, in CategoryInput) (*model.Game, int64, error) {
	cat := strings.TrimSpace(in.Category)
	if model.IsReservedCategory(cat) {
		return nil, 0, validationf("category %q is reserved", cat)
	}
	g, err := s.loadManaged(ctx, in.GameName, in.Actor)
	if err != nil {
		return nil, 0, err
	}
	if !g.HasCategory(cat) {
		return nil, 0, notFoundf("category %q", cat)
	}
	kept := make([]string, 0, len(g.Categories))
	for _, c := range g.Categories {
		if c != cat {
			kept = append(kept, c)
		}
	}
	g.Categories = model.NormalizeCategories(kept)

	moved, err := s.games.RemoveCategory(ctx, g, cat)
	if err != nil {
		return nil, 0, storeErr(err, "game")
	}
	s.catalog.Invalidate(ctx, model.TableGames, model.TableProjects)
	s.log.Info("category removed",
		zap.String("game", g.Name),
		zap.String("category", cat),
		zap.Int64("projects_moved", moved))
	return g, moved, nil
}

func (s *gameService) SetDefault(ctx context.Context, name string, actor *model.User) error {
	if !access.HasCapability(actor, access.CapManageGame, access.Sitewide()) {
		return ErrForbidden
	}
	if err := s.games.SetDefault(ctx, name); err != nil {
		return storeErr(err, "game")
	}
	s.catalog.Invalidate(ctx, model.TableGames)
	return nil
}

func (s *gameService) Delete(ctx context.Context, name string, actor *model.User) error {
	if !access.HasCapability(actor, access.CapManageGame, access.Sitewide()) {
		return ErrForbidden
	}
	if err := s.games.Delete(ctx, name); err != nil {
		return storeErr(err, "game")
	}
	s.catalog.Invalidate(ctx, model.TableGames)
	return nil
}
