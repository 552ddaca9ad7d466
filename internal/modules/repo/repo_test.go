package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/db"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.NewSQLite(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func newGame(name string) *model.Game {
	return &model.Game{Name: name, DisplayName: name, Categories: model.NormalizeCategories([]string{"Gameplay"})}
}

func newProject(name, game string) *model.Project {
	return &model.Project{
		Name:          name,
		Summary:       "s",
		Description:   "d",
		GameName:      game,
		Category:      "Gameplay",
		AuthorIDs:     []uint{1},
		Status:        model.StatusPrivate,
		StatusHistory: []model.StatusHistoryEntry{},
	}
}

func newVersion(projectID uint, mv string) *model.Version {
	return &model.Version{
		ProjectID:               projectID,
		AuthorID:                1,
		ModVersion:              mv,
		Platform:                model.PlatformUniversalPC,
		SupportedGameVersionIDs: []uint{1},
		Dependencies:            []model.Dependency{},
		ContentHashes:           []model.ContentHash{},
		ZipHash:                 "hash-" + mv,
		Status:                  model.StatusPrivate,
		StatusHistory:           []model.StatusHistoryEntry{},
	}
}

func TestGameRepo(t *testing.T) {
	gdb := setupTestDB(t)
	r := NewGameRepo(gdb)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newGame("BeatSaber")))
	require.NoError(t, r.Create(ctx, newGame("ChroMapper")))
	assert.True(t, IsDuplicate(r.Create(ctx, newGame("BeatSaber"))))

	require.NoError(t, r.SetDefault(ctx, "BeatSaber"))
	require.NoError(t, r.SetDefault(ctx, "ChroMapper"))
	games, err := r.List(ctx)
	require.NoError(t, err)
	defaults := 0
	for _, g := range games {
		if g.IsDefault {
			defaults++
			assert.Equal(t, "ChroMapper", g.Name)
		}
	}
	assert.Equal(t, 1, defaults)

	assert.True(t, IsNotFound(r.SetDefault(ctx, "Nope")))

	require.NoError(t, r.Delete(ctx, "ChroMapper"))
	_, err = r.GetByName(ctx, "ChroMapper")
	assert.True(t, IsNotFound(err))
	var count int64
	require.NoError(t, gdb.Unscoped().Model(&model.Game{}).Where("name = ?", "ChroMapper").Count(&count).Error)
	assert.Equal(t, int64(1), count, "games are soft deleted")
}

func TestGameRepo_RemoveCategory(t *testing.T) {
	gdb := setupTestDB(t)
	games := NewGameRepo(gdb)
	projects := NewProjectRepo(gdb)
	ctx := context.Background()

	g := newGame("BeatSaber")
	require.NoError(t, games.Create(ctx, g))
	p := newProject("Mod", "BeatSaber")
	require.NoError(t, projects.Create(ctx, p))

	g.Categories = model.NormalizeCategories(nil)
	moved, err := games.RemoveCategory(ctx, g, "Gameplay")
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, got.Category)
}

func TestGameVersionRepo(t *testing.T) {
	gdb := setupTestDB(t)
	r := NewGameVersionRepo(gdb)
	ctx := context.Background()

	first := &model.GameVersion{GameName: "BeatSaber", Version: "1.29.0"}
	second := &model.GameVersion{GameName: "BeatSaber", Version: "1.29.1"}
	other := &model.GameVersion{GameName: "ChroMapper", Version: "0.1.0"}
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.Create(ctx, second))
	require.NoError(t, r.Create(ctx, other))
	assert.True(t, first.DefaultVersion)
	assert.False(t, second.DefaultVersion)
	assert.True(t, other.DefaultVersion)

	assert.True(t, IsDuplicate(r.Create(ctx, &model.GameVersion{GameName: "BeatSaber", Version: "1.29.0"})))

	require.NoError(t, r.SetDefault(ctx, second.ID))
	list, err := r.ListByGame(ctx, "BeatSaber")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].DefaultVersion)
	assert.True(t, list[1].DefaultVersion)

	first.LinkedVersionIDs = []uint{second.ID}
	second.LinkedVersionIDs = []uint{first.ID}
	require.NoError(t, r.SaveLinks(ctx, []*model.GameVersion{first, second}))

	got, err := r.GetMany(ctx, []uint{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, got[0].LinkedVersionIDs)
	assert.Equal(t, []uint{first.ID}, got[1].LinkedVersionIDs)
	assert.True(t, got[1].DefaultVersion, "saving links leaves other columns alone")
}

func TestProjectRepo_NameTaken(t *testing.T) {
	gdb := setupTestDB(t)
	r := NewProjectRepo(gdb)
	ctx := context.Background()

	p := newProject("SongCore", "BeatSaber")
	require.NoError(t, r.Create(ctx, p))

	taken, err := r.NameTaken(ctx, "songcore", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = r.NameTaken(ctx, "SONGCORE", p.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	n, err := r.CountExisting(ctx, []uint{p.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestVersionRepo_ReleaseUniqueness(t *testing.T) {
	gdb := setupTestDB(t)
	projects := NewProjectRepo(gdb)
	r := NewVersionRepo(gdb)
	ctx := context.Background()

	p := newProject("SongCore", "BeatSaber")
	require.NoError(t, projects.Create(ctx, p))

	v := newVersion(p.ID, "1.0.0")
	require.NoError(t, r.Create(ctx, v))

	taken, err := r.ReleaseTaken(ctx, p.ID, "1.0.0", model.PlatformUniversalPC, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	dup := newVersion(p.ID, "1.0.0")
	assert.True(t, IsDuplicate(r.Create(ctx, dup)), "racing creates lose on the index")

	quest := newVersion(p.ID, "1.0.0")
	quest.Platform = model.PlatformUniversalQuest
	require.NoError(t, r.Create(ctx, quest))

	v.Status = model.StatusRemoved
	require.NoError(t, r.Save(ctx, v))
	again := newVersion(p.ID, "1.0.0")
	require.NoError(t, r.Create(ctx, again), "removed versions free their release slot")
}

func TestVersionRepo_ListByGameAndDownloads(t *testing.T) {
	gdb := setupTestDB(t)
	projects := NewProjectRepo(gdb)
	r := NewVersionRepo(gdb)
	ctx := context.Background()

	bs := newProject("A", "BeatSaber")
	cm := newProject("B", "ChroMapper")
	require.NoError(t, projects.Create(ctx, bs))
	require.NoError(t, projects.Create(ctx, cm))
	v1 := newVersion(bs.ID, "1.0.0")
	v2 := newVersion(cm.ID, "1.0.0")
	require.NoError(t, r.Create(ctx, v1))
	require.NoError(t, r.Create(ctx, v2))

	list, err := r.ListByGame(ctx, "BeatSaber")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v1.ID, list[0].ID)

	require.NoError(t, r.IncrementDownloads(ctx, v1.ID))
	require.NoError(t, r.IncrementDownloads(ctx, v1.ID))
	got, err := r.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DownloadCount)
	assert.True(t, IsNotFound(r.IncrementDownloads(ctx, 999)))

	got.SupportedGameVersionIDs = []uint{1, 2}
	got.ModVersion = "9.9.9"
	require.NoError(t, r.SaveSupportedGameVersions(ctx, got))
	reloaded, err := r.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, reloaded.SupportedGameVersionIDs)
	assert.Equal(t, "1.0.0", reloaded.ModVersion)
}

func TestVersionRepo_SaveKeepsConcurrentDownloads(t *testing.T) {
	gdb := setupTestDB(t)
	projects := NewProjectRepo(gdb)
	r := NewVersionRepo(gdb)
	edits := NewEditRequestRepo(gdb)
	ctx := context.Background()

	p := newProject("A", "BeatSaber")
	require.NoError(t, projects.Create(ctx, p))
	v := newVersion(p.ID, "1.0.0")
	require.NoError(t, r.Create(ctx, v))

	stale, err := r.Get(ctx, v.ID)
	require.NoError(t, err)
	require.NoError(t, r.IncrementDownloads(ctx, v.ID))

	stale.Status = model.StatusPending
	require.NoError(t, r.Save(ctx, stale))
	got, err := r.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, int64(1), got.DownloadCount)

	// approvals write the merged entity inside Decide
	next := "1.0.1"
	req := &model.EditRequest{
		SubmitterID:     1,
		ObjectID:        v.ID,
		ObjectTableName: model.TableVersions,
		GameName:        "BeatSaber",
		Object:          model.VersionEdit(model.VersionPatch{ModVersion: &next}),
	}
	require.NoError(t, edits.Create(ctx, req))
	stale, err = r.Get(ctx, v.ID)
	require.NoError(t, err)
	require.NoError(t, r.IncrementDownloads(ctx, v.ID))

	stale.ModVersion = "1.0.1"
	decided, err := edits.Decide(ctx, req.ID, true, 2, stale)
	require.NoError(t, err)
	assert.True(t, decided)
	got, err = r.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", got.ModVersion)
	assert.Equal(t, int64(2), got.DownloadCount)
}

func TestEditRequestRepo(t *testing.T) {
	gdb := setupTestDB(t)
	projects := NewProjectRepo(gdb)
	r := NewEditRequestRepo(gdb)
	ctx := context.Background()

	p := newProject("SongCore", "BeatSaber")
	require.NoError(t, projects.Create(ctx, p))

	summary := "new summary"
	req := &model.EditRequest{
		SubmitterID:     5,
		ObjectID:        p.ID,
		ObjectTableName: model.TableProjects,
		GameName:        "BeatSaber",
		Object:          model.ProjectEdit(model.ProjectPatch{Summary: &summary}),
	}
	require.NoError(t, r.Create(ctx, req))

	dup := *req
	dup.ID = 0
	assert.True(t, IsDuplicate(r.Create(ctx, &dup)), "one pending request per submitter and object")

	found, err := r.FindPending(ctx, p.ID, model.TableProjects, 5)
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)
	assert.Equal(t, model.EditKindProject, found.Object.Kind)
	assert.Equal(t, summary, *found.Object.Project.Summary)

	changed := "changed"
	found.Object = model.ProjectEdit(model.ProjectPatch{Summary: &changed})
	ok, err := r.UpdatePendingObject(ctx, found)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := r.ListPending(ctx, "BeatSaber", 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, changed, *pending[0].Object.Project.Summary)

	p.Summary = changed
	decided, err := r.Decide(ctx, req.ID, true, 9, p)
	require.NoError(t, err)
	assert.True(t, decided)

	p.Summary = "should not persist"
	decided, err = r.Decide(ctx, req.ID, false, 10, p)
	require.NoError(t, err)
	assert.False(t, decided)

	got, err := r.Get(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Approved)
	assert.True(t, *got.Approved)
	assert.Equal(t, uint(9), *got.ApproverID)

	live, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, changed, live.Summary)

	ok, err = r.UpdatePendingObject(ctx, got)
	require.NoError(t, err)
	assert.False(t, ok)

	// a decided request no longer blocks a new one
	again := model.EditRequest{
		SubmitterID:     5,
		ObjectID:        p.ID,
		ObjectTableName: model.TableProjects,
		GameName:        "BeatSaber",
		Object:          model.ProjectEdit(model.ProjectPatch{Summary: &summary}),
	}
	require.NoError(t, r.Create(ctx, &again))

	pending, err = r.ListPending(ctx, "ChroMapper", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUserRepo(t *testing.T) {
	gdb := setupTestDB(t)
	r := NewUserRepo(gdb)
	ctx := context.Background()

	u := &model.User{Username: "alice", Roles: model.UserRoles{Sitewide: []model.Role{model.RolePoster}}}
	require.NoError(t, r.Create(ctx, u))
	require.NoError(t, r.Create(ctx, &model.User{Username: "bob"}), "users without tokens coexist")

	lookup := "abc123"
	u.TokenHMAC = &lookup
	u.TokenHashPHC = "$argon2id$x"
	require.NoError(t, r.SaveToken(ctx, u))

	got, err := r.GetByTokenHMAC(ctx, lookup)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got.Roles.PerGame = map[string][]model.Role{"BeatSaber": {model.RoleApprover}}
	require.NoError(t, r.SaveRoles(ctx, got))
	again, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RoleApprover}, again.Roles.PerGame["BeatSaber"])
	assert.Equal(t, "$argon2id$x", again.TokenHashPHC)

	_, err = r.GetByTokenHMAC(ctx, "nope")
	assert.True(t, IsNotFound(err))
}
