package model

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAllPermissions Role = "allpermissions"
	RoleAdmin          Role = "admin"
	RolePoster         Role = "poster"
	RoleGameManager    Role = "gamemanager"
	RoleApprover       Role = "approver"
	RoleLargeFiles     Role = "largefiles"
	RoleBanned         Role = "banned"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAllPermissions, RoleAdmin, RolePoster, RoleGameManager, RoleApprover, RoleLargeFiles, RoleBanned:
		return true
	}
	return false
}

type UserRoles struct {
	Sitewide []Role           `json:"sitewide"`
	PerGame  map[string][]Role `json:"per_game"`
}

func (r UserRoles) Game(name string) []Role {
	if r.PerGame == nil {
		return nil
	}
	return r.PerGame[name]
}

func (r UserRoles) HasSitewide(role Role) bool {
	return slices.Contains(r.Sitewide, role)
}

func (r UserRoles) HasForGame(name string, role Role) bool {
	return slices.Contains(r.Game(name), role)
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:text;not null;uniqueIndex" json:"username"`
	GithubID  *string   `gorm:"type:text;uniqueIndex" json:"github_id,omitempty"`
	DiscordID *string   `gorm:"type:text;uniqueIndex" json:"discord_id,omitempty"`
	Roles     UserRoles `gorm:"type:jsonb;not null;serializer:json" json:"roles"`

	// TokenHMAC is the lookup key for API tokens; TokenHashPHC is the
	// argon2id hash checked when strict verification is enabled.
	TokenHMAC    *string `gorm:"type:text;uniqueIndex" json:"-"`
	TokenHashPHC string  `gorm:"type:text;not null;default:''" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }
