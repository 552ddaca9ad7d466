package model

import (
	"fmt"
	"time"
)

type EditKind string

const (
	EditKindProject EditKind = "project"
	EditKindVersion EditKind = "version"
)

// Table returns the object table an edit of this kind targets.
func (k EditKind) Table() ObjectTable {
	switch k {
	case EditKindProject:
		return TableProjects
	case EditKindVersion:
		return TableVersions
	}
	return ""
}

// ProjectPatch holds the editable project fields. Nil means unchanged.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	GitURL      *string `json:"git_url,omitempty"`
	AuthorIDs   *[]uint `json:"author_ids,omitempty"`
	IconFile    *string `json:"icon_file_name,omitempty"`
}

func (p *ProjectPatch) Empty() bool {
	return p == nil || (p.Name == nil && p.Summary == nil && p.Description == nil &&
		p.Category == nil && p.GitURL == nil && p.AuthorIDs == nil && p.IconFile == nil)
}

// Apply merges the provided fields onto dst.
func (p *ProjectPatch) Apply(dst *Project) {
	if p == nil {
		return
	}
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Summary != nil {
		dst.Summary = *p.Summary
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.GitURL != nil {
		dst.GitURL = *p.GitURL
	}
	if p.AuthorIDs != nil {
		dst.AuthorIDs = append([]uint(nil), (*p.AuthorIDs)...)
	}
	if p.IconFile != nil {
		dst.IconFile = *p.IconFile
	}
}

type VersionPatch struct {
	ModVersion              *string       `json:"mod_version,omitempty"`
	Platform                *Platform     `json:"platform,omitempty"`
	SupportedGameVersionIDs *[]uint       `json:"supported_game_version_ids,omitempty"`
	Dependencies            *[]Dependency `json:"dependencies,omitempty"`
}

func (p *VersionPatch) Empty() bool {
	return p == nil || (p.ModVersion == nil && p.Platform == nil &&
		p.SupportedGameVersionIDs == nil && p.Dependencies == nil)
}

func (p *VersionPatch) Apply(dst *Version) {
	if p == nil {
		return
	}
	if p.ModVersion != nil {
		dst.ModVersion = *p.ModVersion
	}
	if p.Platform != nil {
		dst.Platform = *p.Platform
	}
	if p.SupportedGameVersionIDs != nil {
		dst.SupportedGameVersionIDs = append([]uint(nil), (*p.SupportedGameVersionIDs)...)
	}
	if p.Dependencies != nil {
		dst.Dependencies = append([]Dependency(nil), (*p.Dependencies)...)
	}
}

// EditPayload is the staged change carried by an EditRequest. Exactly one of
// Project or Version is set, matching Kind.
type EditPayload struct {
	Kind    EditKind      `json:"kind"`
	Project *ProjectPatch `json:"project,omitempty"`
	Version *VersionPatch `json:"version,omitempty"`
}

func ProjectEdit(p ProjectPatch) EditPayload {
	return EditPayload{Kind: EditKindProject, Project: &p}
}

func VersionEdit(p VersionPatch) EditPayload {
	return EditPayload{Kind: EditKindVersion, Version: &p}
}

// CheckTable reports a mismatch between the payload and the table it is
// declared against.
func (p EditPayload) CheckTable(table ObjectTable) error {
	switch {
	case p.Kind.Table() == "":
		return fmt.Errorf("unknown edit kind %q", p.Kind)
	case p.Kind.Table() != table:
		return fmt.Errorf("edit kind %q does not match table %q", p.Kind, table)
	case p.Kind == EditKindProject && (p.Project == nil || p.Version != nil):
		return fmt.Errorf("project edit carries a malformed payload")
	case p.Kind == EditKindVersion && (p.Version == nil || p.Project != nil):
		return fmt.Errorf("version edit carries a malformed payload")
	}
	return nil
}

type EditRequest struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	SubmitterID     uint        `gorm:"not null;index;uniqueIndex:uq_edit_pending,priority:3,where:approved IS NULL" json:"submitter_id"`
	ObjectID        uint        `gorm:"not null;uniqueIndex:uq_edit_pending,priority:1,where:approved IS NULL" json:"object_id"`
	ObjectTableName ObjectTable `gorm:"type:text;not null;uniqueIndex:uq_edit_pending,priority:2,where:approved IS NULL" json:"object_table_name"`
	// GameName scopes the request for approver queues.
	GameName   string      `gorm:"type:text;not null;index" json:"game_name"`
	Object     EditPayload `gorm:"type:jsonb;not null;serializer:json" json:"object"`
	ApproverID *uint       `json:"approver_id"`
	// Approved is nil while pending, then true or false forever.
	Approved *bool `gorm:"index" json:"approved"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EditRequest) TableName() string { return "edit_requests" }

func (e *EditRequest) Pending() bool { return e.Approved == nil }
