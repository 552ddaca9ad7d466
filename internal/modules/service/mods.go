package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/resolver"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

const (
	StatusFilterVerified = "verified"
	// StatusFilterPreview also serves unverified releases.
	StatusFilterPreview = "preview"
)

type ModsService interface {
	Query(ctx context.Context, in ModsQueryInput) (*resolver.Result, error)
}

type ModsQueryInput struct {
	GameName string `form:"gameName" binding:"required"`
	// GameVersion is the version string, e.g. "1.29.1". Empty skips the
	// game-version filter and the result is approximate.
	GameVersion string         `form:"gameVersion"`
	Platform    model.Platform `form:"platform"`
	Status      string         `form:"status"`
	// Mode overrides the configured resolver mode.
	Mode string `form:"mode"`
}

type modsService struct {
	catalog Catalog
	mode    resolver.Mode
	log     *zap.Logger
}

func NewModsService(catalog Catalog, mode resolver.Mode, log *zap.Logger) ModsService {
	if mode == "" {
		mode = resolver.ModeClosure
	}
	return &modsService{catalog: catalog, mode: mode, log: log}
}

func statusesFor(filter string) ([]model.Status, error) {
	switch strings.ToLower(filter) {
	case "", StatusFilterVerified:
		return []model.Status{model.StatusVerified}, nil
	case StatusFilterPreview:
		return []model.Status{model.StatusVerified, model.StatusUnverified}, nil
	}
	return nil, validationf("unknown status filter %q", filter)
}

func (s *modsService) Query(ctx context.Context, in ModsQueryInput) (*resolver.Result, error) {
	statuses, err := statusesFor(in.Status)
	if err != nil {
		return nil, err
	}
	if in.Platform != "" {
		if err := checkPlatform(in.Platform); err != nil {
			return nil, err
		}
	}
	mode := s.mode
	if in.Mode != "" {
		var ok bool
		if mode, ok = resolver.ParseMode(in.Mode); !ok {
			return nil, validationf("unknown resolver mode %q", in.Mode)
		}
	}

	cat, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	q := resolver.Query{GameName: in.GameName, Platform: in.Platform, Statuses: statuses, Mode: mode}
	if in.GameVersion != "" {
		var found *model.GameVersion
		for _, gv := range cat.GameVersions {
			if gv.GameName == in.GameName && gv.Version == in.GameVersion {
				found = gv
				break
			}
		}
		if found == nil {
			return nil, notFoundf("game version %s for %s", in.GameVersion, in.GameName)
		}
		q.GameVersionID = &found.ID
	}

	start := time.Now()
	res := resolver.Resolve(cat, q)
	elapsed := time.Since(start)
	telemetry.RecordResolve(ctx, string(mode), float64(elapsed.Microseconds())/1000, len(res.Pruned))
	if len(res.Pruned) > 0 {
		s.log.Debug("resolver pruned projects",
			zap.String("game", in.GameName),
			zap.String("mode", string(mode)),
			zap.Uints("pruned", res.Pruned),
			zap.Int("passes", res.Passes))
	}
	return &res, nil
}
