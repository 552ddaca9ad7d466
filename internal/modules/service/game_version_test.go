package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

func TestGameVersionService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, f.gv[0].DefaultVersion)
	assert.False(t, f.gv[1].DefaultVersion)

	_, err := f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: testGame, Version: "1.29.0", Actor: f.admin})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: "Unknown", Version: "1.0.0", Actor: f.admin})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: testGame, Version: "1.31.0", Actor: f.author})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: testGame, Version: "  ", Actor: f.admin})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGameVersionService_ListAndDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: testGame, Version: "1.9.0", Actor: f.admin})
	require.NoError(t, err)

	list, err := f.gameVersions.List(ctx, testGame)
	require.NoError(t, err)
	versions := make([]string, 0, len(list))
	for _, gv := range list {
		versions = append(versions, gv.Version)
	}
	assert.Equal(t, []string{"1.9.0", "1.29.0", "1.29.1", "1.30.0"}, versions)

	got, err := f.gameVersions.SetDefault(ctx, f.gv[2].ID, f.admin)
	require.NoError(t, err)
	assert.True(t, got.DefaultVersion)

	old, err := f.gameVersionRepo.Get(ctx, f.gv[0].ID)
	require.NoError(t, err)
	assert.False(t, old.DefaultVersion)
}

func TestGameVersionService_Links(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.gv[0], f.gv[1], f.gv[2]

	other, err := f.games.Create(ctx, CreateGameInput{Name: "ChroMapper", Actor: f.admin})
	require.NoError(t, err)
	foreign, err := f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: other.Name, Version: "0.1.0", Actor: f.admin})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   LinkInput
		want error
	}{
		{name: "self link", in: LinkInput{A: a.ID, B: a.ID, Actor: f.admin}, want: ErrValidation},
		{name: "different games", in: LinkInput{A: a.ID, B: foreign.ID, Actor: f.admin}, want: ErrValidation},
		{name: "missing version", in: LinkInput{A: a.ID, B: 999, Actor: f.admin}, want: ErrNotFound},
		{name: "no permission", in: LinkInput{A: a.ID, B: b.ID, Actor: f.author}, want: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gameVersions.AddLink(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("links are symmetric", func(t *testing.T) {
		_, err := f.gameVersions.AddLink(ctx, LinkInput{A: a.ID, B: b.ID, Actor: f.admin})
		require.NoError(t, err)

		ga, _ := f.gameVersionRepo.Get(ctx, a.ID)
		gb, _ := f.gameVersionRepo.Get(ctx, b.ID)
		assert.Equal(t, []uint{b.ID}, ga.LinkedVersionIDs)
		assert.Equal(t, []uint{a.ID}, gb.LinkedVersionIDs)
	})

	t.Run("already linked", func(t *testing.T) {
		_, err := f.gameVersions.AddLink(ctx, LinkInput{A: b.ID, B: a.ID, Actor: f.admin})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("groups stay fully linked", func(t *testing.T) {
		_, err := f.gameVersions.AddLink(ctx, LinkInput{A: c.ID, B: b.ID, Actor: f.admin})
		require.NoError(t, err)

		for _, gv := range []*model.GameVersion{a, b, c} {
			stored, err := f.gameVersionRepo.Get(ctx, gv.ID)
			require.NoError(t, err)
			assert.Len(t, stored.LinkedVersionIDs, 2, "version %s", gv.Version)
			assert.NotContains(t, stored.LinkedVersionIDs, gv.ID)
		}
	})

	t.Run("remove link detaches from the group", func(t *testing.T) {
		_, err := f.gameVersions.RemoveLink(ctx, LinkInput{A: a.ID, B: c.ID, Actor: f.admin})
		require.NoError(t, err)

		ga, _ := f.gameVersionRepo.Get(ctx, a.ID)
		gb, _ := f.gameVersionRepo.Get(ctx, b.ID)
		gc, _ := f.gameVersionRepo.Get(ctx, c.ID)
		assert.Equal(t, []uint{b.ID}, ga.LinkedVersionIDs)
		assert.Equal(t, []uint{a.ID}, gb.LinkedVersionIDs)
		assert.Empty(t, gc.LinkedVersionIDs)

		_, err = f.gameVersions.RemoveLink(ctx, LinkInput{A: a.ID, B: c.ID, Actor: f.admin})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("expansion stays closed after removal", func(t *testing.T) {
		got, err := f.gameVersions.ExpandSupported(ctx, testGame, []uint{a.ID})
		require.NoError(t, err)
		assert.Equal(t, []uint{a.ID, b.ID}, got)
		for _, id := range got {
			stored, err := f.gameVersionRepo.Get(ctx, id)
			require.NoError(t, err)
			for _, linked := range stored.LinkedVersionIDs {
				assert.Contains(t, got, linked, "version %d links %d outside the set", id, linked)
			}
		}
	})

	t.Run("later link does not restore a removed one", func(t *testing.T) {
		d, err := f.gameVersions.Create(ctx, CreateGameVersionInput{GameName: testGame, Version: "1.31.0", Actor: f.admin})
		require.NoError(t, err)
		_, err = f.gameVersions.AddLink(ctx, LinkInput{A: a.ID, B: d.ID, Actor: f.admin})
		require.NoError(t, err)

		ga, _ := f.gameVersionRepo.Get(ctx, a.ID)
		gc, _ := f.gameVersionRepo.Get(ctx, c.ID)
		assert.ElementsMatch(t, []uint{b.ID, d.ID}, ga.LinkedVersionIDs)
		assert.NotContains(t, ga.LinkedVersionIDs, c.ID)
		assert.Empty(t, gc.LinkedVersionIDs)
	})
}

func TestGameVersionService_ExpandSupported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.gv[0], f.gv[1], f.gv[2]

	_, err := f.gameVersions.AddLink(ctx, LinkInput{A: c.ID, B: a.ID, Actor: f.admin})
	require.NoError(t, err)

	got, err := f.gameVersions.ExpandSupported(ctx, testGame, []uint{c.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, got)

	_, err = f.gameVersions.ExpandSupported(ctx, testGame, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.gameVersions.ExpandSupported(ctx, testGame, []uint{a.ID, 999})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGameVersionService_Resort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.gv[0], f.gv[1], f.gv[2]
	p := f.project(t, "Heck")
	v1 := f.version(t, p.ID, "1.0.0", ids(b))
	v2 := f.version(t, p.ID, "1.1.0", ids(c))

	// linking does not touch existing versions
	_, err := f.gameVersions.AddLink(ctx, LinkInput{A: a.ID, B: b.ID, Actor: f.admin})
	require.NoError(t, err)
	stale, err := f.versionRepo.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, ids(b), stale.SupportedGameVersionIDs)

	t.Run("sync", func(t *testing.T) {
		report, err := f.gameVersions.ResortSync(ctx, testGame)
		require.NoError(t, err)
		assert.Equal(t, &ResortReport{Total: 2, Updated: 1}, report)

		got, err := f.versionRepo.Get(ctx, v1.ID)
		require.NoError(t, err)
		assert.Equal(t, ids(a, b), got.SupportedGameVersionIDs)
	})

	t.Run("async returns the count", func(t *testing.T) {
		_, err := f.gameVersions.AddLink(ctx, LinkInput{A: c.ID, B: b.ID, Actor: f.admin})
		require.NoError(t, err)

		n, err := f.gameVersions.Resort(ctx, testGame, f.admin)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.Eventually(t, func() bool {
			got, err := f.versionRepo.Get(ctx, v2.ID)
			return err == nil && assert.ObjectsAreEqual(ids(a, b, c), got.SupportedGameVersionIDs)
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("forbidden", func(t *testing.T) {
		_, err := f.gameVersions.Resort(ctx, testGame, f.author)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown game", func(t *testing.T) {
		_, err := f.gameVersions.ResortSync(ctx, "Nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
