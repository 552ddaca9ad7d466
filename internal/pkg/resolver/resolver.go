// Package resolver picks, for every project of a game, the newest release
// compatible with a target game version and drops releases whose
// dependencies cannot be met by the rest of the selection.
//
// ModeClosure repeats the dependency filter until nothing else is dropped,
// so the output is dependency-closed. ModeSinglePass keeps the historical
// behaviour of one pass in project-id order that only looks at candidates
// already accepted; a dependency on a later project is dropped even if it
// would have qualified.
package resolver

import (
	"slices"
	"sort"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/versioning"
)

type Mode string

const (
	ModeClosure    Mode = "closure"
	ModeSinglePass Mode = "single_pass"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeClosure, "":
		return ModeClosure, true
	case ModeSinglePass:
		return ModeSinglePass, true
	}
	return "", false
}

// Catalog is the read-only snapshot the resolver works on.
type Catalog struct {
	Projects     []*model.Project
	Versions     []*model.Version
	GameVersions []*model.GameVersion
}

type Query struct {
	GameName string
	// GameVersionID nil means no game-version filter; the result is then
	// approximate.
	GameVersionID *uint
	// Platform empty accepts every platform.
	Platform model.Platform
	Statuses []model.Status
	Mode     Mode
}

type Pair struct {
	Project *model.Project `json:"project"`
	Version *model.Version `json:"version"`
}

type Result struct {
	Pairs       []Pair `json:"pairs"`
	Approximate bool   `json:"approximate"`
	// Pruned lists project ids that had a candidate but lost it to unmet
	// dependencies.
	Pruned []uint `json:"pruned,omitempty"`
	Passes int    `json:"passes"`
}

func Resolve(cat Catalog, q Query) Result {
	candidates := Candidates(cat, q)

	var kept []Pair
	passes := 1
	switch q.Mode {
	case ModeSinglePass:
		kept = singlePass(candidates)
	default:
		kept, passes = fixedPoint(candidates)
	}

	keptIDs := make(map[uint]bool, len(kept))
	for _, p := range kept {
		keptIDs[p.Project.ID] = true
	}
	var pruned []uint
	for _, c := range candidates {
		if !keptIDs[c.Project.ID] {
			pruned = append(pruned, c.Project.ID)
		}
	}

	return Result{
		Pairs:       kept,
		Approximate: q.GameVersionID == nil,
		Pruned:      pruned,
		Passes:      passes,
	}
}

// Candidates returns the latest eligible release of every eligible project,
// ordered by project id, before any dependency filtering.
func Candidates(cat Catalog, q Query) []Pair {
	targets := targetSet(cat.GameVersions, q.GameVersionID)

	byProject := make(map[uint][]*model.Version)
	for _, v := range cat.Versions {
		if !slices.Contains(q.Statuses, v.Status) {
			continue
		}
		if q.Platform != "" && !q.Platform.Accepts(v.Platform) {
			continue
		}
		if targets != nil && !supportsAny(v, targets) {
			continue
		}
		byProject[v.ProjectID] = append(byProject[v.ProjectID], v)
	}

	var out []Pair
	for _, p := range cat.Projects {
		if p.GameName != q.GameName || !slices.Contains(q.Statuses, p.Status) {
			continue
		}
		if best := latest(byProject[p.ID], q.Platform); best != nil {
			out = append(out, Pair{Project: p, Version: best})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Project.ID < out[j].Project.ID })
	return out
}

// targetSet is the requested game version plus everything linked to it, or
// nil when no filter applies.
func targetSet(gvs []*model.GameVersion, id *uint) map[uint]bool {
	if id == nil {
		return nil
	}
	set := map[uint]bool{*id: true}
	for _, gv := range gvs {
		if gv.ID != *id {
			continue
		}
		for _, linked := range gv.LinkedVersionIDs {
			set[linked] = true
		}
	}
	return set
}

func supportsAny(v *model.Version, targets map[uint]bool) bool {
	for _, id := range v.SupportedGameVersionIDs {
		if targets[id] {
			return true
		}
	}
	return false
}

// latest picks the highest mod version. On equal versions a build for the
// exact platform asked for beats a universal one, then the newer row wins.
func latest(vs []*model.Version, platform model.Platform) *model.Version {
	var best *model.Version
	for _, v := range vs {
		if best == nil {
			best = v
			continue
		}
		c := versioning.CompareMod(v.ModVersion, best.ModVersion)
		if c > 0 {
			best = v
			continue
		}
		if c < 0 {
			continue
		}
		vExact, bestExact := v.Platform == platform, best.Platform == platform
		if vExact != bestExact {
			if vExact {
				best = v
			}
			continue
		}
		if v.ID > best.ID {
			best = v
		}
	}
	return best
}

func satisfied(v *model.Version, chosen map[uint]*model.Version) bool {
	for _, dep := range v.Dependencies {
		parent, ok := chosen[dep.ParentID]
		if !ok || !versioning.Satisfies(parent.ModVersion, dep.SV) {
			return false
		}
	}
	return true
}

func singlePass(candidates []Pair) []Pair {
	chosen := make(map[uint]*model.Version, len(candidates))
	var kept []Pair
	for _, c := range candidates {
		if satisfied(c.Version, chosen) {
			chosen[c.Project.ID] = c.Version
			kept = append(kept, c)
		}
	}
	return kept
}

func fixedPoint(candidates []Pair) ([]Pair, int) {
	kept := append([]Pair(nil), candidates...)
	passes := 0
	// each productive pass removes at least one candidate
	for passes <= len(candidates) {
		passes++
		chosen := make(map[uint]*model.Version, len(kept))
		for _, c := range kept {
			chosen[c.Project.ID] = c.Version
		}
		next := kept[:0:0]
		for _, c := range kept {
			if satisfied(c.Version, chosen) {
				next = append(next, c)
			}
		}
		if len(next) == len(kept) {
			break
		}
		kept = next
	}
	return kept, passes
}
