package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/cache"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/resolver"
)

// Catalog serves read-only snapshots of the store. Writers call Invalidate
// for every table they touched; readers may see the previous snapshot until
// then, and at most one refresh interval after a write on another instance.
type Catalog interface {
	Games(ctx context.Context) ([]*model.Game, error)
	GameVersions(ctx context.Context) ([]*model.GameVersion, error)
	Projects(ctx context.Context) ([]*model.Project, error)
	Versions(ctx context.Context) ([]*model.Version, error)
	Users(ctx context.Context) ([]*model.User, error)
	EditRequests(ctx context.Context) ([]*model.EditRequest, error)
	// Snapshot loads what the resolver needs in parallel.
	Snapshot(ctx context.Context) (resolver.Catalog, error)
	Invalidate(ctx context.Context, tables ...model.ObjectTable)
}

type catalog struct {
	reg          *cache.Registry
	games        *cache.Table[*model.Game]
	gameVersions *cache.Table[*model.GameVersion]
	projects     *cache.Table[*model.Project]
	versions     *cache.Table[*model.Version]
	users        *cache.Table[*model.User]
	edits        *cache.Table[*model.EditRequest]
}

func NewCatalog(
	reg *cache.Registry,
	games repo.GameRepo,
	gameVersions repo.GameVersionRepo,
	projects repo.ProjectRepo,
	versions repo.VersionRepo,
	users repo.UserRepo,
	edits repo.EditRequestRepo,
) Catalog {
	c := &catalog{
		reg:          reg,
		games:        cache.NewTable(string(model.TableGames), games.List),
		gameVersions: cache.NewTable(string(model.TableGameVersions), gameVersions.List),
		projects:     cache.NewTable(string(model.TableProjects), projects.List),
		versions:     cache.NewTable(string(model.TableVersions), versions.List),
		users:        cache.NewTable(string(model.TableUsers), users.List),
		edits:        cache.NewTable(string(model.TableEditRequests), edits.List),
	}
	reg.Register(c.games)
	reg.Register(c.gameVersions)
	reg.Register(c.projects)
	reg.Register(c.versions)
	reg.Register(c.users)
	reg.Register(c.edits)
	return c
}

func (c *catalog) Games(ctx context.Context) ([]*model.Game, error) { return c.games.All(ctx) }

func (c *catalog) GameVersions(ctx context.Context) ([]*model.GameVersion, error) {
	return c.gameVersions.All(ctx)
}

func (c *catalog) Projects(ctx context.Context) ([]*model.Project, error) {
	return c.projects.All(ctx)
}

func (c *catalog) Versions(ctx context.Context) ([]*model.Version, error) {
	return c.versions.All(ctx)
}

func (c *catalog) Users(ctx context.Context) ([]*model.User, error) { return c.users.All(ctx) }

func (c *catalog) EditRequests(ctx context.Context) ([]*model.EditRequest, error) {
	return c.edits.All(ctx)
}

func (c *catalog) Snapshot(ctx context.Context) (resolver.Catalog, error) {
	var out resolver.Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Projects, err = c.projects.All(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Versions, err = c.versions.All(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.GameVersions, err = c.gameVersions.All(gctx)
		return err
	})
	return out, g.Wait()
}

func (c *catalog) Invalidate(ctx context.Context, tables ...model.ObjectTable) {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, string(t))
	}
	c.reg.Invalidate(ctx, names...)
}
