package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samber/do"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

const AdminUsername = "admin"

// SeedFile is the on-disk layout of the registry seed. Every entry is
// created only when missing, so the file can be applied on each start.
type SeedFile struct {
	Games []SeedGame `yaml:"games"`
	Users []SeedUser `yaml:"users"`
}

type SeedGame struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name"`
	Categories  []string          `yaml:"categories"`
	Default     bool              `yaml:"default"`
	Versions    []SeedGameVersion `yaml:"versions"`
}

type SeedGameVersion struct {
	Version string   `yaml:"version"`
	Default bool     `yaml:"default"`
	Links   []string `yaml:"links"`
}

type SeedUser struct {
	Username string                  `yaml:"username"`
	Sitewide []model.Role            `yaml:"sitewide"`
	PerGame  map[string][]model.Role `yaml:"per_game"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &f, nil
}

// Seed makes sure the bootstrap admin exists and applies the configured
// seed file.
func Seed(ctx context.Context, inj *do.Injector) error {
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	users := do.MustInvoke[service.UserService](inj)

	admin, err := EnsureBootstrapAdmin(ctx, users, cfg.Auth, log)
	if err != nil {
		return err
	}
	if cfg.Registry.SeedFile == "" {
		return nil
	}
	f, err := LoadSeedFile(cfg.Registry.SeedFile)
	if err != nil {
		return err
	}
	s := &seeder{
		admin:        admin,
		games:        do.MustInvoke[service.GameService](inj),
		gameVersions: do.MustInvoke[service.GameVersionService](inj),
		users:        users,
		log:          log,
	}
	return s.apply(ctx, f)
}

// EnsureBootstrapAdmin creates the sitewide admin on first start and, when a
// bootstrap token is configured, installs it as the admin's token.
func EnsureBootstrapAdmin(ctx context.Context, users service.UserService, auth config.AuthCfg, log *zap.Logger) (*model.User, error) {
	admin, err := users.GetByUsername(ctx, AdminUsername)
	switch {
	case err == nil:
		if !admin.Roles.HasSitewide(model.RoleAllPermissions) {
			log.Warn("bootstrap admin lacks allpermissions", zap.Uint("user_id", admin.ID))
		}
	case errors.Is(err, service.ErrNotFound):
		admin, err = users.Create(ctx, service.CreateUserInput{
			Username: AdminUsername,
			Roles:    model.UserRoles{Sitewide: []model.Role{model.RoleAllPermissions}},
		})
		if err != nil {
			return nil, err
		}
		log.Sugar().Infow("bootstrap admin created", "user", admin.ID)
	default:
		return nil, err
	}

	if auth.BootstrapAdminToken == "" {
		return admin, nil
	}
	if err := users.SetToken(ctx, admin.ID, auth.BootstrapAdminToken); err != nil {
		return nil, fmt.Errorf("install bootstrap admin token: %w", err)
	}
	log.Sugar().Infow("bootstrap admin token installed", "user", admin.ID)
	return admin, nil
}

type seeder struct {
	admin        *model.User
	games        service.GameService
	gameVersions service.GameVersionService
	users        service.UserService
	log          *zap.Logger
}

func (s *seeder) apply(ctx context.Context, f *SeedFile) error {
	for _, g := range f.Games {
		if err := s.game(ctx, g); err != nil {
			return fmt.Errorf("seed game %s: %w", g.Name, err)
		}
	}
	for _, u := range f.Users {
		if err := s.user(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	return nil
}

func (s *seeder) game(ctx context.Context, sg SeedGame) error {
	_, err := s.games.Get(ctx, sg.Name)
	switch {
	case errors.Is(err, service.ErrNotFound):
		if _, err := s.games.Create(ctx, service.CreateGameInput{
			Name:        sg.Name,
			DisplayName: sg.DisplayName,
			Categories:  sg.Categories,
			Actor:       s.admin,
		}); err != nil {
			return err
		}
		s.log.Sugar().Infow("seeded game", "game", sg.Name)
		if sg.Default {
			if err := s.games.SetDefault(ctx, sg.Name, s.admin); err != nil {
				return err
			}
		}
	case err != nil:
		return err
	}

	existing, err := s.gameVersions.List(ctx, sg.Name)
	if err != nil {
		return err
	}
	byVersion := make(map[string]*model.GameVersion, len(existing))
	for _, gv := range existing {
		byVersion[gv.Version] = gv
	}

	for _, sv := range sg.Versions {
		if _, ok := byVersion[sv.Version]; ok {
			continue
		}
		gv, err := s.gameVersions.Create(ctx, service.CreateGameVersionInput{
			GameName: sg.Name,
			Version:  sv.Version,
			Actor:    s.admin,
		})
		if err != nil {
			return err
		}
		byVersion[gv.Version] = gv
		if sv.Default {
			if _, err := s.gameVersions.SetDefault(ctx, gv.ID, s.admin); err != nil {
				return err
			}
		}
	}

	for _, sv := range sg.Versions {
		a := byVersion[sv.Version]
		for _, other := range sv.Links {
			b, ok := byVersion[other]
			if !ok {
				return fmt.Errorf("link %s -> %s: unknown game version", sv.Version, other)
			}
			if a.IsLinkedTo(b.ID) {
				continue
			}
			updated, err := s.gameVersions.AddLink(ctx, service.LinkInput{A: a.ID, B: b.ID, Actor: s.admin})
			if err != nil {
				return err
			}
			for _, gv := range updated {
				byVersion[gv.Version] = gv
			}
			a = byVersion[sv.Version]
		}
	}
	return nil
}

func (s *seeder) user(ctx context.Context, su SeedUser) error {
	_, err := s.users.GetByUsername(ctx, su.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, service.ErrNotFound) {
		return err
	}
	u, err := s.users.Create(ctx, service.CreateUserInput{
		Username: su.Username,
		Roles:    model.UserRoles{Sitewide: su.Sitewide, PerGame: su.PerGame},
	})
	if err != nil {
		return err
	}
	s.log.Sugar().Infow("seeded user", "user", u.ID, "username", u.Username)
	return nil
}
