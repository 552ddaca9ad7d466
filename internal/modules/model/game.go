package model

import (
	"slices"
	"time"

	"gorm.io/gorm"
)

const (
	CategoryCore       = "Core"
	CategoryEssentials = "Essentials"
	CategoryOther      = "Other"
)

// ReservedCategories are always present, in this order at the edges of a
// game's category list, and cannot be renamed or removed.
var ReservedCategories = []string{CategoryCore, CategoryEssentials, CategoryOther}

func IsReservedCategory(name string) bool {
	return slices.Contains(ReservedCategories, name)
}

type Game struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"type:text;not null;uniqueIndex" json:"name"`
	DisplayName string   `gorm:"type:text;not null" json:"display_name"`
	Categories  []string `gorm:"type:jsonb;not null;serializer:json" json:"categories"`
	IsDefault   bool     `gorm:"not null;default:false;index" json:"default"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Game) TableName() string { return "games" }

func (g *Game) HasCategory(name string) bool {
	return slices.Contains(g.Categories, name)
}

// NormalizeCategories returns cats deduplicated with Core and Essentials
// first and Other last.
func NormalizeCategories(cats []string) []string {
	out := []string{CategoryCore, CategoryEssentials}
	seen := map[string]bool{CategoryCore: true, CategoryEssentials: true, CategoryOther: true}
	for _, c := range cats {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return append(out, CategoryOther)
}
