package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/cache"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/db"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/resolver"
)

const testGame = "BeatSaber"

type eventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *eventRecorder) Notify(_ context.Context, ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) last() model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return model.Event{}
	}
	return r.events[len(r.events)-1]
}

func (r *eventRecorder) kinds() []model.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fakeAssets struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (a *fakeAssets) Exists(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys[key], nil
}

func (a *fakeAssets) put(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key] = true
}

type fixture struct {
	db     *gorm.DB
	events *eventRecorder
	assets *fakeAssets

	gameRepo        repo.GameRepo
	gameVersionRepo repo.GameVersionRepo
	projectRepo     repo.ProjectRepo
	versionRepo     repo.VersionRepo
	editRepo        repo.EditRequestRepo
	userRepo        repo.UserRepo

	catalog      Catalog
	status       StatusService
	queue        EditQueue
	approvals    ApprovalService
	gameVersions GameVersionService
	games        GameService
	projects     ProjectService
	versions     VersionService
	users        UserService
	mods         ModsService

	admin    *model.User
	approver *model.User
	author   *model.User
	coauthor *model.User
	outsider *model.User

	gv []*model.GameVersion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.NewSQLite(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	f := &fixture{
		db:              gdb,
		events:          &eventRecorder{},
		assets:          &fakeAssets{keys: map[string]bool{}},
		gameRepo:        repo.NewGameRepo(gdb),
		gameVersionRepo: repo.NewGameVersionRepo(gdb),
		projectRepo:     repo.NewProjectRepo(gdb),
		versionRepo:     repo.NewVersionRepo(gdb),
		editRepo:        repo.NewEditRequestRepo(gdb),
		userRepo:        repo.NewUserRepo(gdb),
	}
	f.catalog = NewCatalog(cache.NewRegistry(log), f.gameRepo, f.gameVersionRepo, f.projectRepo, f.versionRepo, f.userRepo, f.editRepo)
	f.status = NewStatusService(f.gameRepo, f.projectRepo, f.versionRepo, f.assets, f.catalog, f.events, log)
	f.queue = NewEditQueue(f.projectRepo, f.versionRepo, f.editRepo, f.catalog, f.events, log)
	f.gameVersions = NewGameVersionService(f.gameRepo, f.gameVersionRepo, f.versionRepo, f.catalog, log, 2)
	f.approvals = NewApprovalService(f.editRepo, f.projectRepo, f.versionRepo, f.gameVersions, f.catalog, f.events, log)
	f.games = NewGameService(f.gameRepo, f.catalog, log)
	f.projects = NewProjectService(f.gameRepo, f.projectRepo, f.userRepo, f.queue, f.catalog, f.events, bluemonday.UGCPolicy(), log)
	f.versions = NewVersionService(f.projectRepo, f.versionRepo, f.gameVersions, f.queue, f.catalog, f.events, log)
	f.users = NewUserService(f.userRepo, f.catalog, config.AuthCfg{TokenPrefix: "bbm_", SecretPepper: "pepper"}, log)
	f.mods = NewModsService(f.catalog, resolver.ModeClosure, log)

	ctx := context.Background()
	f.admin = f.user(t, "admin", model.UserRoles{Sitewide: []model.Role{model.RoleAllPermissions}})
	f.approver = f.user(t, "approver", model.UserRoles{PerGame: map[string][]model.Role{testGame: {model.RoleApprover}}})
	f.author = f.user(t, "author", model.UserRoles{})
	f.coauthor = f.user(t, "coauthor", model.UserRoles{})
	f.outsider = f.user(t, "outsider", model.UserRoles{})

	_, err = f.games.Create(ctx, CreateGameInput{Name: testGame, Categories: []string{"Gameplay", "Cosmetic"}, Actor: f.admin})
	require.NoError(t, err)
	for _, v := range []string{"1.29.0", "1.29.1", "1.30.0"} {
		gv, err := f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: testGame, Version: v, Actor: f.admin})
		require.NoError(t, err)
		f.gv = append(f.gv, gv)
	}
	return f
}

func (f *fixture) user(t *testing.T, name string, roles model.UserRoles) *model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), CreateUserInput{Username: name, Roles: roles})
	require.NoError(t, err)
	return u
}

func (f *fixture) project(t *testing.T, name string, authors ...uint) *model.Project {
	t.Helper()
	in := CreateProjectInput{
		GameName:    testGame,
		Name:        name,
		Summary:     name + " summary",
		Description: "A mod.",
		Category:    "Gameplay",
		Actor:       f.author,
	}
	if len(authors) > 0 {
		in.AuthorIDs = authors
	}
	p, err := f.projects.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func (f *fixture) version(t *testing.T, projectID uint, mv string, gvIDs []uint, deps ...model.Dependency) *model.Version {
	t.Helper()
	v, err := f.versions.Create(context.Background(), CreateVersionInput{
		ProjectID:               projectID,
		ModVersion:              mv,
		Platform:                model.PlatformUniversalPC,
		SupportedGameVersionIDs: gvIDs,
		Dependencies:            deps,
		ZipHash:                 zipHash(projectID, mv),
		FileSize:                1024,
		Actor:                   f.author,
	})
	require.NoError(t, err)
	return v
}

func zipHash(projectID uint, mv string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d@%s", projectID, mv)))
	return hex.EncodeToString(sum[:])
}

// verifyProject walks a project from private to verified.
func (f *fixture) verifyProject(t *testing.T, id uint) *model.Project {
	t.Helper()
	ctx := context.Background()
	_, err := f.status.SetProjectStatus(ctx, SetStatusInput{ID: id, Status: model.StatusPending, Actor: f.author})
	require.NoError(t, err)
	p, err := f.status.SetProjectStatus(ctx, SetStatusInput{ID: id, Status: model.StatusVerified, Actor: f.approver})
	require.NoError(t, err)
	return p
}

func (f *fixture) verifyVersion(t *testing.T, id uint) *model.Version {
	t.Helper()
	ctx := context.Background()
	_, err := f.status.SetVersionStatus(ctx, SetStatusInput{ID: id, Status: model.StatusPending, Actor: f.author})
	require.NoError(t, err)
	v, err := f.status.SetVersionStatus(ctx, SetStatusInput{ID: id, Status: model.StatusVerified, Actor: f.approver})
	require.NoError(t, err)
	return v
}

func ids(gvs ...*model.GameVersion) []uint {
	out := make([]uint, 0, len(gvs))
	for _, gv := range gvs {
		out = append(out, gv.ID)
	}
	return out
}
