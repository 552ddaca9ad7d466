// Package access resolves what a user may do, from the sitewide and per-game
// role sets stored on the user.
package access

import (
	"slices"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type Capability string

const (
	// CapPost covers creating and editing one's own projects and versions.
	CapPost        Capability = "post"
	CapApprove     Capability = "approve"
	CapManageGame  Capability = "manage_game"
	CapManageUsers Capability = "manage_users"
	CapLargeFiles  Capability = "large_files"
	// CapGrantAdmin is required to hand out Admin or AllPermissions.
	CapGrantAdmin Capability = "grant_admin"
)

var grants = map[Capability][]model.Role{
	CapPost:        nil,
	CapApprove:     {model.RoleApprover, model.RoleAdmin, model.RoleAllPermissions},
	CapManageGame:  {model.RoleGameManager, model.RoleAdmin, model.RoleAllPermissions},
	CapManageUsers: {model.RoleAdmin, model.RoleAllPermissions},
	CapLargeFiles:  {model.RoleLargeFiles, model.RoleAdmin, model.RoleAllPermissions},
	CapGrantAdmin:  {model.RoleAllPermissions},
}

// Scope is either sitewide (empty Game) or a single game.
type Scope struct {
	Game string
}

func Sitewide() Scope { return Scope{} }

func Game(name string) Scope { return Scope{Game: name} }

func (s Scope) IsSitewide() bool { return s.Game == "" }

// HasCapability reports whether u holds c within scope. Sitewide roles apply
// to every game; per-game roles only to their own game. A Banned role in the
// sitewide set or in the scoped game denies everything.
func HasCapability(u *model.User, c Capability, scope Scope) bool {
	if u == nil {
		return false
	}
	roles := roleSet(u, scope)
	if slices.Contains(roles, model.RoleBanned) {
		return false
	}
	want, ok := grants[c]
	if !ok {
		return false
	}
	if want == nil {
		return true
	}
	for _, r := range want {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}

// IsBanned reports whether u is banned sitewide or within scope.
func IsBanned(u *model.User, scope Scope) bool {
	return u != nil && slices.Contains(roleSet(u, scope), model.RoleBanned)
}

func roleSet(u *model.User, scope Scope) []model.Role {
	roles := append([]model.Role(nil), u.Roles.Sitewide...)
	if !scope.IsSitewide() {
		roles = append(roles, u.Roles.Game(scope.Game)...)
	}
	return roles
}

// CanView applies the read rules for projects and versions. Removed entities
// are only visible to approvers. Private and pending entities are visible to
// their authors and approvers. Everything else is public.
func CanView(u *model.User, status model.Status, authorIDs []uint, game string) bool {
	if status.Public() {
		return true
	}
	if HasCapability(u, CapApprove, Game(game)) {
		return true
	}
	if status == model.StatusRemoved || u == nil {
		return false
	}
	return slices.Contains(authorIDs, u.ID)
}
