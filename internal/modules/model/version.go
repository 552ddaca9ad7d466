package model

import "time"

// Dependency declares that a version needs some release of ParentID whose
// mod version satisfies the semver range SV.
type Dependency struct {
	ParentID uint   `json:"parent_id"`
	SV       string `json:"sv"`
}

type ContentHash struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

type Version struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"not null;index;uniqueIndex:uq_version_release,priority:1,where:status <> 'removed'" json:"project_id"`
	AuthorID  uint `gorm:"not null" json:"author_id"`
	// ModVersion is canonical semver without a leading "v".
	ModVersion string   `gorm:"type:text;not null;uniqueIndex:uq_version_release,priority:2,where:status <> 'removed'" json:"mod_version"`
	Platform   Platform `gorm:"type:text;not null;uniqueIndex:uq_version_release,priority:3,where:status <> 'removed'" json:"platform"`
	// SupportedGameVersionIDs is deduplicated, closed over game-version links
	// and sorted ascending by game-version ordering.
	SupportedGameVersionIDs []uint       `gorm:"type:jsonb;not null;serializer:json" json:"supported_game_version_ids"`
	Dependencies            []Dependency `gorm:"type:jsonb;not null;serializer:json" json:"dependencies"`

	ZipHash       string        `gorm:"type:text;not null;index" json:"zip_hash"`
	ContentHashes []ContentHash `gorm:"type:jsonb;not null;serializer:json" json:"content_hashes"`
	FileSize      int64         `gorm:"not null;default:0" json:"file_size"`
	DownloadCount int64         `gorm:"not null;default:0" json:"download_count"`

	Status           Status               `gorm:"type:text;not null;default:'private';index" json:"status"`
	StatusHistory    []StatusHistoryEntry `gorm:"type:jsonb;not null;serializer:json" json:"status_history"`
	LastApprovedByID *uint                `json:"last_approved_by_id"`
	LastUpdatedByID  uint                 `gorm:"not null" json:"last_updated_by_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Version) TableName() string { return "versions" }

// AssetKey is the blob key of the uploaded zip.
func (v *Version) AssetKey() string {
	return v.ZipHash + ".zip"
}

func (v *Version) SupportsGameVersion(id uint) bool {
	return containsID(v.SupportedGameVersionIDs, id)
}

func (v *Version) Clone() *Version {
	cp := *v
	cp.SupportedGameVersionIDs = append([]uint(nil), v.SupportedGameVersionIDs...)
	cp.Dependencies = append([]Dependency(nil), v.Dependencies...)
	cp.ContentHashes = append([]ContentHash(nil), v.ContentHashes...)
	cp.StatusHistory = append([]StatusHistoryEntry(nil), v.StatusHistory...)
	if v.LastApprovedByID != nil {
		id := *v.LastApprovedByID
		cp.LastApprovedByID = &id
	}
	return &cp
}
