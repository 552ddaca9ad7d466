package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

const game = "BeatSaber"

var verifiedOnly = []model.Status{model.StatusVerified}

func project(id uint, status model.Status) *model.Project {
	return &model.Project{ID: id, Name: "p", GameName: game, Status: status, AuthorIDs: []uint{1}}
}

func version(id, projectID uint, mv string, status model.Status, gvs []uint, deps ...model.Dependency) *model.Version {
	return &model.Version{
		ID:                      id,
		ProjectID:               projectID,
		ModVersion:              mv,
		Platform:                model.PlatformUniversalPC,
		Status:                  status,
		SupportedGameVersionIDs: gvs,
		Dependencies:            deps,
	}
}

func dep(parent uint, sv string) model.Dependency {
	return model.Dependency{ParentID: parent, SV: sv}
}

func ptr(id uint) *uint { return &id }

func chosen(res Result) map[uint]string {
	out := map[uint]string{}
	for _, p := range res.Pairs {
		out[p.Project.ID] = p.Version.ModVersion
	}
	return out
}

func TestResolve_StatusFilterPicksVerifiedDependency(t *testing.T) {
	cat := Catalog{
		Projects: []*model.Project{project(1, model.StatusVerified), project(2, model.StatusVerified)},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}, dep(2, "^1.0.0")),
			version(20, 2, "1.0.0", model.StatusVerified, []uint{100}),
			version(21, 2, "2.0.0", model.StatusUnverified, []uint{100}),
		},
		GameVersions: []*model.GameVersion{{ID: 100, GameName: game, Version: "1.29.0"}},
	}

	for _, mode := range []Mode{ModeClosure, ModeSinglePass} {
		t.Run(string(mode), func(t *testing.T) {
			res := Resolve(cat, Query{GameName: game, GameVersionID: ptr(100), Statuses: verifiedOnly, Mode: mode})
			assert.Equal(t, map[uint]string{1: "1.0.0", 2: "1.0.0"}, chosen(res))
			assert.False(t, res.Approximate)
			assert.Empty(t, res.Pruned)
		})
	}
}

func TestResolve_PreviewPrunesUnsatisfiedRange(t *testing.T) {
	cat := Catalog{
		Projects: []*model.Project{project(1, model.StatusVerified), project(2, model.StatusVerified)},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}, dep(2, "^1.0.0")),
			version(20, 2, "1.0.0", model.StatusVerified, []uint{100}),
			version(21, 2, "2.0.0", model.StatusUnverified, []uint{100}),
		},
	}

	res := Resolve(cat, Query{
		GameName:      game,
		GameVersionID: ptr(100),
		Statuses:      []model.Status{model.StatusVerified, model.StatusUnverified},
	})
	// 2.0.0 is the latest preview release, which breaks project 1's range
	assert.Equal(t, map[uint]string{2: "2.0.0"}, chosen(res))
	assert.Equal(t, []uint{1}, res.Pruned)
}

func TestResolve_LinkedGameVersion(t *testing.T) {
	cat := Catalog{
		Projects: []*model.Project{project(1, model.StatusVerified)},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}),
		},
		GameVersions: []*model.GameVersion{
			{ID: 100, GameName: game, Version: "1.29.0", LinkedVersionIDs: []uint{101}},
			{ID: 101, GameName: game, Version: "1.29.1", LinkedVersionIDs: []uint{100}},
			{ID: 102, GameName: game, Version: "1.30.0"},
		},
	}

	res := Resolve(cat, Query{GameName: game, GameVersionID: ptr(101), Statuses: verifiedOnly})
	assert.Equal(t, map[uint]string{1: "1.0.0"}, chosen(res))

	res = Resolve(cat, Query{GameName: game, GameVersionID: ptr(102), Statuses: verifiedOnly})
	assert.Empty(t, res.Pairs)
}

func TestResolve_CascadingPrune(t *testing.T) {
	// 3 -> 2 -> 1, and 1 needs a release of 4 that does not exist.
	cat := Catalog{
		Projects: []*model.Project{
			project(1, model.StatusVerified),
			project(2, model.StatusVerified),
			project(3, model.StatusVerified),
			project(4, model.StatusVerified),
		},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}, dep(4, "^2.0.0")),
			version(20, 2, "1.0.0", model.StatusVerified, []uint{100}, dep(1, "^1.0.0")),
			version(30, 3, "1.0.0", model.StatusVerified, []uint{100}, dep(2, "^1.0.0")),
			version(40, 4, "1.5.0", model.StatusVerified, []uint{100}),
		},
	}

	res := Resolve(cat, Query{GameName: game, GameVersionID: ptr(100), Statuses: verifiedOnly})
	assert.Equal(t, map[uint]string{4: "1.5.0"}, chosen(res))
	assert.Equal(t, []uint{1, 2, 3}, res.Pruned)
}

func TestResolve_ForwardDependency(t *testing.T) {
	// project 1 depends on project 2, which comes later in id order
	cat := Catalog{
		Projects: []*model.Project{project(1, model.StatusVerified), project(2, model.StatusVerified)},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}, dep(2, ">=1.0.0")),
			version(20, 2, "1.2.0", model.StatusVerified, []uint{100}),
		},
	}
	q := Query{GameName: game, GameVersionID: ptr(100), Statuses: verifiedOnly}

	q.Mode = ModeClosure
	assert.Equal(t, map[uint]string{1: "1.0.0", 2: "1.2.0"}, chosen(Resolve(cat, q)))

	q.Mode = ModeSinglePass
	res := Resolve(cat, q)
	assert.Equal(t, map[uint]string{2: "1.2.0"}, chosen(res))
	assert.Equal(t, []uint{1}, res.Pruned)
}

func TestResolve_MutualDependency(t *testing.T) {
	cat := Catalog{
		Projects: []*model.Project{project(1, model.StatusVerified), project(2, model.StatusVerified)},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}, dep(2, "^1.0.0")),
			version(20, 2, "1.0.0", model.StatusVerified, []uint{100}, dep(1, "^1.0.0")),
		},
	}

	res := Resolve(cat, Query{GameName: game, GameVersionID: ptr(100), Statuses: verifiedOnly})
	assert.Len(t, res.Pairs, 2)
}

func TestResolve_ClosureIsSound(t *testing.T) {
	cat := Catalog{
		Projects: []*model.Project{
			project(1, model.StatusVerified), project(2, model.StatusVerified),
			project(3, model.StatusVerified), project(4, model.StatusVerified),
			project(5, model.StatusVerified),
		},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}, dep(5, "^1.0.0")),
			version(20, 2, "2.1.0", model.StatusVerified, []uint{100}, dep(1, "~1.0.0"), dep(3, ">=0.5.0")),
			version(30, 3, "0.4.0", model.StatusVerified, []uint{100}),
			version(40, 4, "3.0.0", model.StatusVerified, []uint{100}, dep(1, "^1.0.0")),
			version(50, 5, "1.2.0", model.StatusVerified, []uint{100}),
		},
	}

	res := Resolve(cat, Query{GameName: game, GameVersionID: ptr(100), Statuses: verifiedOnly})
	picked := map[uint]*model.Version{}
	for _, p := range res.Pairs {
		picked[p.Project.ID] = p.Version
	}
	for _, p := range res.Pairs {
		for _, d := range p.Version.Dependencies {
			parent, ok := picked[d.ParentID]
			require.True(t, ok, "project %d missing dependency %d", p.Project.ID, d.ParentID)
			assert.True(t, satisfied(p.Version, picked), "range %s on %s", d.SV, parent.ModVersion)
		}
	}
	assert.Equal(t, map[uint]string{1: "1.0.0", 3: "0.4.0", 4: "3.0.0", 5: "1.2.0"}, chosen(res))
}

func TestResolve_NoGameVersionIsApproximate(t *testing.T) {
	cat := Catalog{
		Projects: []*model.Project{project(1, model.StatusVerified)},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}),
			version(11, 1, "1.1.0", model.StatusVerified, []uint{101}),
		},
	}

	res := Resolve(cat, Query{GameName: game, Statuses: verifiedOnly})
	assert.True(t, res.Approximate)
	assert.Equal(t, map[uint]string{1: "1.1.0"}, chosen(res))
}

func TestCandidates_Filters(t *testing.T) {
	other := project(3, model.StatusVerified)
	other.GameName = "ChroMapper"

	steam := version(12, 1, "1.2.0", model.StatusVerified, []uint{100})
	steam.Platform = model.PlatformSteamPC
	quest := version(13, 1, "9.0.0", model.StatusVerified, []uint{100})
	quest.Platform = model.PlatformUniversalQuest

	cat := Catalog{
		Projects: []*model.Project{
			project(1, model.StatusVerified),
			project(2, model.StatusRemoved),
			other,
		},
		Versions: []*model.Version{
			version(10, 1, "1.0.0", model.StatusVerified, []uint{100}),
			version(11, 1, "1.1.0", model.StatusVerified, []uint{100}),
			steam, quest,
			version(14, 1, "5.0.0", model.StatusRemoved, []uint{100}),
			version(20, 2, "1.0.0", model.StatusVerified, []uint{100}),
			version(30, 3, "1.0.0", model.StatusVerified, []uint{100}),
		},
	}

	got := Candidates(cat, Query{GameName: game, GameVersionID: ptr(100), Platform: model.PlatformOculusPC, Statuses: verifiedOnly})
	require.Len(t, got, 1)
	assert.Equal(t, "1.1.0", got[0].Version.ModVersion)

	got = Candidates(cat, Query{GameName: game, GameVersionID: ptr(100), Platform: model.PlatformSteamPC, Statuses: verifiedOnly})
	require.Len(t, got, 1)
	assert.Equal(t, "1.2.0", got[0].Version.ModVersion)

	got = Candidates(cat, Query{GameName: game, GameVersionID: ptr(100), Platform: model.PlatformUniversalQuest, Statuses: verifiedOnly})
	require.Len(t, got, 1)
	assert.Equal(t, "9.0.0", got[0].Version.ModVersion)
}

func TestLatest_PrefersExactPlatformOnTie(t *testing.T) {
	universal := version(10, 1, "1.0.0", model.StatusVerified, nil)
	steam := version(9, 1, "v1.0.0", model.StatusVerified, nil)
	steam.Platform = model.PlatformSteamPC

	assert.Same(t, steam, latest([]*model.Version{universal, steam}, model.PlatformSteamPC))
	assert.Same(t, universal, latest([]*model.Version{steam, universal}, model.PlatformUniversalPC))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeClosure, m)

	m, ok = ParseMode("single_pass")
	assert.True(t, ok)
	assert.Equal(t, ModeSinglePass, m)

	_, ok = ParseMode("eager")
	assert.False(t, ok)
}
