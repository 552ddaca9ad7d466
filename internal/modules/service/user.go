package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/access"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/utils/tokens"
)

type UserService interface {
	Get(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	// Authenticate resolves a raw bearer token to its user.
	Authenticate(ctx context.Context, rawToken string) (*model.User, error)
	// IssueToken replaces the user's token and returns the new one. Only the
	// user or a sitewide user manager may do this.
	IssueToken(ctx context.Context, userID uint, actor *model.User) (string, error)
	// SetToken installs a known token, used for the bootstrap admin.
	SetToken(ctx context.Context, userID uint, rawToken string) error
	SetRoles(ctx context.Context, in SetRolesInput) (*model.User, error)
}

type CreateUserInput struct {
	Username  string          `json:"username" binding:"required"`
	GithubID  *string         `json:"github_id"`
	DiscordID *string         `json:"discord_id"`
	Roles     model.UserRoles `json:"roles"`
}

// SetRolesInput replaces one role set. An empty GameName targets the
// sitewide set.
type SetRolesInput struct {
	UserID   uint         `json:"-"`
	GameName string       `json:"game_name"`
	Roles    []model.Role `json:"roles"`
	Actor    *model.User  `json:"-"`
}

type userService struct {
	users   repo.UserRepo
	catalog Catalog
	auth    config.AuthCfg
	log     *zap.Logger
}

func NewUserService(users repo.UserRepo, catalog Catalog, auth config.AuthCfg, log *zap.Logger) UserService {
	return &userService{users: users, catalog: catalog, auth: auth, log: log}
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Username)
	if name == "" {
		return nil, validationf("username is required")
	}
	for _, r := range in.Roles.Sitewide {
		if !r.Valid() {
			return nil, validationf("unknown role %q", r)
		}
	}
	roles := in.Roles
	if roles.Sitewide == nil {
		roles.Sitewide = []model.Role{}
	}
	if roles.PerGame == nil {
		roles.PerGame = map[string][]model.Role{}
	}
	u := &model.User{Username: name, GithubID: in.GithubID, DiscordID: in.DiscordID, Roles: roles}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	s.catalog.Invalidate(ctx, model.TableUsers)
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, rawToken string) (*model.User, error) {
	secret, ok := tokens.ParseToken(rawToken, s.auth.TokenPrefix)
	if !ok {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByTokenHMAC(ctx, tokens.HMAC256Hex(s.auth.SecretPepper, secret))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if s.auth.EnableArgon2Verification {
		ok, err := tokens.VerifySecret(secret, s.auth.SecretPepper, u.TokenHashPHC)
		if err != nil || !ok {
			return nil, ErrForbidden
		}
	}
	return u, nil
}

func (s *userService) IssueToken(ctx context.Context, userID uint, actor *model.User) (string, error) {
	if actor == nil {
		return "", ErrForbidden
	}
	if actor.ID != userID && !access.HasCapability(actor, access.CapManageUsers, access.Sitewide()) {
		return "", ErrForbidden
	}
	raw, _, err := tokens.Generate(s.auth.TokenPrefix)
	if err != nil {
		return "", err
	}
	if err := s.SetToken(ctx, userID, raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *userService) SetToken(ctx context.Context, userID uint, rawToken string) error {
	secret, ok := tokens.ParseToken(rawToken, s.auth.TokenPrefix)
	if !ok {
		return validationf("token must start with %q", s.auth.TokenPrefix)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	lookup := tokens.HMAC256Hex(s.auth.SecretPepper, secret)
	phc, err := tokens.HashSecret(secret, s.auth.SecretPepper)
	if err != nil {
		return err
	}
	u.TokenHMAC = &lookup
	u.TokenHashPHC = phc
	if err := s.users.SaveToken(ctx, u); err != nil {
		return storeErr(err, "token")
	}
	s.log.Info("user token rotated", zap.Uint("user_id", u.ID))
	return nil
}

func grantsAdmin(roles []model.Role) bool {
	return slices.Contains(roles, model.RoleAdmin) || slices.Contains(roles, model.RoleAllPermissions)
}

func (s *userService) SetRoles(ctx context.Context, in SetRolesInput) (*model.User, error) {
	scope := access.Sitewide()
	if in.GameName != "" {
		scope = access.Game(in.GameName)
	}
	if !access.HasCapability(in.Actor, access.CapManageUsers, scope) {
		return nil, ErrForbidden
	}
	if in.Actor.ID == in.UserID {
		return nil, ErrForbidden
	}

	roles := make([]model.Role, 0, len(in.Roles))
	for _, r := range in.Roles {
		if !r.Valid() {
			return nil, validationf("unknown role %q", r)
		}
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}

	u, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	current := u.Roles.Sitewide
	if !scope.IsSitewide() {
		current = u.Roles.Game(in.GameName)
	}
	if (grantsAdmin(roles) || grantsAdmin(current)) &&
		!access.HasCapability(in.Actor, access.CapGrantAdmin, access.Sitewide()) {
		return nil, ErrForbidden
	}

	if scope.IsSitewide() {
		u.Roles.Sitewide = roles
	} else {
		if u.Roles.PerGame == nil {
			u.Roles.PerGame = map[string][]model.Role{}
		}
		if len(roles) == 0 {
			delete(u.Roles.PerGame, in.GameName)
		} else {
			u.Roles.PerGame[in.GameName] = roles
		}
	}
	if err := s.users.SaveRoles(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	s.catalog.Invalidate(ctx, model.TableUsers)
	s.log.Info("user roles changed",
		zap.Uint("user_id", u.ID),
		zap.String("game", in.GameName),
		zap.Uint("actor_id", in.Actor.ID))
	return u, nil
}
