package model

import "time"

type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Summary     string `gorm:"type:text;not null" json:"summary"`
	Description string `gorm:"type:text;not null" json:"description"`
	GameName    string `gorm:"type:text;not null;index" json:"game_name"`
	Category    string `gorm:"type:text;not null" json:"category"`
	AuthorIDs   []uint `gorm:"type:jsonb;not null;serializer:json" json:"author_ids"`
	IconFile    string `gorm:"type:text;not null;default:''" json:"icon_file_name"`
	GitURL      string `gorm:"type:text;not null;default:''" json:"git_url"`

	Status           Status               `gorm:"type:text;not null;default:'private';index" json:"status"`
	StatusHistory    []StatusHistoryEntry `gorm:"type:jsonb;not null;serializer:json" json:"status_history"`
	LastApprovedByID *uint                `json:"last_approved_by_id"`
	LastUpdatedByID  uint                 `gorm:"not null" json:"last_updated_by_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) IsAuthor(userID uint) bool {
	return containsID(p.AuthorIDs, userID)
}

// Clone returns a deep copy, used as the pre-edit snapshot in notifications.
func (p *Project) Clone() *Project {
	cp := *p
	cp.AuthorIDs = append([]uint(nil), p.AuthorIDs...)
	cp.StatusHistory = append([]StatusHistoryEntry(nil), p.StatusHistory...)
	if p.LastApprovedByID != nil {
		id := *p.LastApprovedByID
		cp.LastApprovedByID = &id
	}
	return &cp
}
