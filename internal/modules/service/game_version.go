package service

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/access"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/versioning"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

type GameVersionService interface {
	Create(ctx context.Context, in CreateGameVersionInput) (*model.GameVersion, error)
	Get(ctx context.Context, id uint) (*model.GameVersion, error)
	// List returns the versions of gameName (every game when empty) in
	// game-version order.
	List(ctx context.Context, gameName string) ([]*model.GameVersion, error)
	SetDefault(ctx context.Context, id uint, actor *model.User) (*model.GameVersion, error)
	AddLink(ctx context.Context, in LinkInput) ([]*model.GameVersion, error)
	RemoveLink(ctx context.Context, in LinkInput) ([]*model.GameVersion, error)
	// ExpandSupported checks that every id belongs to gameName, adds the
	// versions linked to each and returns the set in game-version order.
	ExpandSupported(ctx context.Context, gameName string, ids []uint) ([]uint, error)
	// Resort starts a background re-sort of every version of the game and
	// returns how many versions it will visit.
	Resort(ctx context.Context, gameName string, actor *model.User) (int, error)
	ResortSync(ctx context.Context, gameName string) (*ResortReport, error)
}

type CreateGameVersionInput struct {
	GameName string      `json:"game_name" binding:"required"`
	Version  string      `json:"version" binding:"required"`
	Actor    *model.User `json:"-"`
}

type LinkInput struct {
	A     uint        `json:"a" binding:"required"`
	B     uint        `json:"b" binding:"required"`
	Actor *model.User `json:"-"`
}

type ResortReport struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type gameVersionService struct {
	games        repo.GameRepo
	gameVersions repo.GameVersionRepo
	versions     repo.VersionRepo
	catalog      Catalog
	log          *zap.Logger
	workers      int
}

func NewGameVersionService(
	games repo.GameRepo,
	gameVersions repo.GameVersionRepo,
	versions repo.VersionRepo,
	catalog Catalog,
	log *zap.Logger,
	workers int,
) GameVersionService {
	if workers <= 0 {
		workers = 1
	}
	return &gameVersionService{
		games:        games,
		gameVersions: gameVersions,
		versions:     versions,
		catalog:      catalog,
		log:          log,
		workers:      workers,
	}
}

func canManageGame(u *model.User, game string) bool {
	return access.HasCapability(u, access.CapManageGame, access.Game(game))
}

func (s *gameVersionService) Create(ctx context.Context, in CreateGameVersionInput) (*model.GameVersion, error) {
	version := strings.TrimSpace(in.Version)
	if version == "" {
		return nil, validationf("version is required")
	}
	if !canManageGame(in.Actor, in.GameName) {
		return nil, ErrForbidden
	}
	if _, err := s.games.GetByName(ctx, in.GameName); err != nil {
		return nil, storeErr(err, "game")
	}

	gv := &model.GameVersion{GameName: in.GameName, Version: version}
	if err := s.gameVersions.Create(ctx, gv); err != nil {
		return nil, storeErr(err, "game version")
	}
	s.catalog.Invalidate(ctx, model.TableGameVersions)
	return gv, nil
}

func (s *gameVersionService) Get(ctx context.Context, id uint) (*model.GameVersion, error) {
	gv, err := s.gameVersions.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "game version")
	}
	return gv, nil
}

func (s *gameVersionService) List(ctx context.Context, gameName string) ([]*model.GameVersion, error) {
	all, err := s.catalog.GameVersions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.GameVersion, 0, len(all))
	for _, gv := range all {
		if gameName == "" || gv.GameName == gameName {
			out = append(out, gv)
		}
	}
	sortGameVersions(out)
	return out, nil
}

func sortGameVersions(gvs []*model.GameVersion) {
	sort.SliceStable(gvs, func(i, j int) bool {
		if c := versioning.CompareGame(gvs[i].Version, gvs[j].Version); c != 0 {
			return c < 0
		}
		return gvs[i].ID < gvs[j].ID
	})
}

func (s *gameVersionService) SetDefault(ctx context.Context, id uint, actor *model.User) (*model.GameVersion, error) {
	gv, err := s.gameVersions.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "game version")
	}
	if !canManageGame(actor, gv.GameName) {
		return nil, ErrForbidden
	}
	if err := s.gameVersions.SetDefault(ctx, id); err != nil {
		return nil, storeErr(err, "game version")
	}
	s.catalog.Invalidate(ctx, model.TableGameVersions)
	gv.DefaultVersion = true
	return gv, nil
}

// loadPair fetches both ends of a link and checks they may be linked at all.
func (s *gameVersionService) loadPair(ctx context.Context, in LinkInput) (*model.GameVersion, *model.GameVersion, error) {
	if in.A == in.B {
		return nil, nil, validationf("a game version cannot be linked to itself")
	}
	a, err := s.gameVersions.Get(ctx, in.A)
	if err != nil {
		return nil, nil, storeErr(err, "game version")
	}
	b, err := s.gameVersions.Get(ctx, in.B)
	if err != nil {
		return nil, nil, storeErr(err, "game version")
	}
	if a.GameName != b.GameName {
		return nil, nil, validationf("game versions %d and %d belong to different games", a.ID, b.ID)
	}
	if !canManageGame(in.Actor, a.GameName) {
		return nil, nil, ErrForbidden
	}
	return a, b, nil
}

// AddLink merges the groups of A and B so that every member lists every
// other member.
func (s *gameVersionService) AddLink(ctx context.Context, in LinkInput) ([]*model.GameVersion, error) {
	a, b, err := s.loadPair(ctx, in)
	if err != nil {
		return nil, err
	}
	if a.IsLinkedTo(b.ID) || b.IsLinkedTo(a.ID) {
		return nil, conflictf("game versions %d and %d are already linked", a.ID, b.ID)
	}

	siblings, err := s.gameVersions.ListByGame(ctx, a.GameName)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.GameVersion, len(siblings))
	for _, gv := range siblings {
		byID[gv.ID] = gv
	}

	group := component(byID, a.ID)
	for _, id := range component(byID, b.ID) {
		if !slices.Contains(group, id) {
			group = append(group, id)
		}
	}
	slices.Sort(group)

	changed := make([]*model.GameVersion, 0, len(group))
	for _, id := range group {
		gv := byID[id]
		links := make([]uint, 0, len(group)-1)
		for _, other := range group {
			if other != id {
				links = append(links, other)
			}
		}
		if !slices.Equal(gv.LinkedVersionIDs, links) {
			gv.LinkedVersionIDs = links
			changed = append(changed, gv)
		}
	}
	if err := s.gameVersions.SaveLinks(ctx, changed); err != nil {
		return nil, storeErr(err, "game version")
	}
	s.catalog.Invalidate(ctx, model.TableGameVersions)
	s.log.Info("game versions linked",
		zap.String("game", a.GameName),
		zap.Uint("a", a.ID),
		zap.Uint("b", b.ID),
		zap.Int("group_size", len(group)))
	return changed, nil
}

// component walks links from start. Ids missing from byID are skipped.
func component(byID map[uint]*model.GameVersion, start uint) []uint {
	seen := map[uint]bool{start: true}
	out := []uint{start}
	for i := 0; i < len(out); i++ {
		gv, ok := byID[out[i]]
		if !ok {
			continue
		}
		for _, id := range gv.LinkedVersionIDs {
			if _, ok := byID[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// RemoveLink detaches B from its whole group. The members left behind stay
// linked to each other, so every group remains fully linked and a later
// AddLink cannot pull B back in through a surviving member.
func (s *gameVersionService) RemoveLink(ctx context.Context, in LinkInput) ([]*model.GameVersion, error) {
	a, b, err := s.loadPair(ctx, in)
	if err != nil {
		return nil, err
	}
	if !a.IsLinkedTo(b.ID) && !b.IsLinkedTo(a.ID) {
		return nil, validationf("game versions %d and %d are not linked", a.ID, b.ID)
	}

	siblings, err := s.gameVersions.ListByGame(ctx, a.GameName)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.GameVersion, len(siblings))
	for _, gv := range siblings {
		byID[gv.ID] = gv
	}

	changed := make([]*model.GameVersion, 0, len(b.LinkedVersionIDs)+1)
	for _, id := range component(byID, b.ID) {
		gv := byID[id]
		if gv == nil {
			continue
		}
		var links []uint
		if id != b.ID {
			links = slices.DeleteFunc(slices.Clone(gv.LinkedVersionIDs), func(l uint) bool { return l == b.ID })
		}
		if links == nil {
			links = []uint{}
		}
		if !slices.Equal(gv.LinkedVersionIDs, links) {
			gv.LinkedVersionIDs = links
			changed = append(changed, gv)
		}
	}
	if err := s.gameVersions.SaveLinks(ctx, changed); err != nil {
		return nil, storeErr(err, "game version")
	}
	s.catalog.Invalidate(ctx, model.TableGameVersions)
	s.log.Info("game version unlinked",
		zap.String("game", a.GameName),
		zap.Uint("detached", b.ID),
		zap.Int("changed", len(changed)))
	return changed, nil
}

func (s *gameVersionService) ExpandSupported(ctx context.Context, gameName string, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, validationf("at least one supported game version is required")
	}
	siblings, err := s.gameVersions.ListByGame(ctx, gameName)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.GameVersion, len(siblings))
	for _, gv := range siblings {
		byID[gv.ID] = gv
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, conflictf("game version %d does not exist for %s", id, gameName)
		}
	}
	return expand(byID, ids), nil
}

// expand adds one level of links to ids, dedupes and orders the result.
// Groups are kept fully linked on write, so one level reaches the group.
// Unknown ids are kept and sort last.
func expand(byID map[uint]*model.GameVersion, ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	add := func(id uint) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range ids {
		add(id)
		if gv, ok := byID[id]; ok {
			for _, linked := range gv.LinkedVersionIDs {
				if _, ok := byID[linked]; ok {
					add(linked)
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := byID[out[i]]
		b, okB := byID[out[j]]
		switch {
		case okA && okB:
			if c := versioning.CompareGame(a.Version, b.Version); c != 0 {
				return c < 0
			}
			return a.ID < b.ID
		case okA != okB:
			return okA
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func (s *gameVersionService) Resort(ctx context.Context, gameName string, actor *model.User) (int, error) {
	if !canManageGame(actor, gameName) {
		return 0, ErrForbidden
	}
	versions, err := s.versions.ListByGame(ctx, gameName)
	if err != nil {
		return 0, err
	}
	// the sweep outlives the request and has no deadline
	go s.sweep(context.WithoutCancel(ctx), gameName, versions)
	return len(versions), nil
}

func (s *gameVersionService) ResortSync(ctx context.Context, gameName string) (*ResortReport, error) {
	if _, err := s.games.GetByName(ctx, gameName); err != nil {
		return nil, storeErr(err, "game")
	}
	versions, err := s.versions.ListByGame(ctx, gameName)
	if err != nil {
		return nil, err
	}
	return s.sweep(ctx, gameName, versions), nil
}

// sweep rewrites each version's supported list independently. Failures are
// logged per record and nothing is rolled back.
func (s *gameVersionService) sweep(ctx context.Context, gameName string, versions []*model.Version) *ResortReport {
	report := &ResortReport{Total: len(versions)}
	siblings, err := s.gameVersions.ListByGame(ctx, gameName)
	if err != nil {
		s.log.Error("resort: load game versions", zap.String("game", gameName), zap.Error(err))
		report.Failed = len(versions)
		return report
	}
	byID := make(map[uint]*model.GameVersion, len(siblings))
	for _, gv := range siblings {
		byID[gv.ID] = gv
	}

	var updated, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, v := range versions {
		g.Go(func() error {
			next := expand(byID, v.SupportedGameVersionIDs)
			if slices.Equal(next, v.SupportedGameVersionIDs) {
				telemetry.RecordResortRecord(ctx, true)
				return nil
			}
			v.SupportedGameVersionIDs = next
			if err := s.versions.SaveSupportedGameVersions(ctx, v); err != nil {
				failed.Add(1)
				telemetry.RecordResortRecord(ctx, false)
				s.log.Warn("resort: save version", zap.Uint("version_id", v.ID), zap.Error(err))
				return nil
			}
			updated.Add(1)
			telemetry.RecordResortRecord(ctx, true)
			return nil
		})
	}
	_ = g.Wait()

	report.Updated = int(updated.Load())
	report.Failed = int(failed.Load())
	s.catalog.Invalidate(ctx, model.TableVersions)
	s.log.Info("resort finished",
		zap.String("game", gameName),
		zap.Int("total", report.Total),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed))
	return report
}
