package model

import "time"

type GameVersion struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	GameName string `gorm:"type:text;not null;index;uniqueIndex:uq_game_version,priority:1" json:"game_name"`
	Version  string `gorm:"type:text;not null;uniqueIndex:uq_game_version,priority:2" json:"version"`
	// DefaultVersion is set on exactly one version per game.
	DefaultVersion bool `gorm:"not null;default:false" json:"default_version"`
	// LinkedVersionIDs is symmetric: if A lists B then B lists A.
	LinkedVersionIDs []uint `gorm:"type:jsonb;not null;serializer:json" json:"linked_version_ids"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GameVersion) TableName() string { return "game_versions" }

func (gv *GameVersion) IsLinkedTo(id uint) bool {
	return containsID(gv.LinkedVersionIDs, id)
}
