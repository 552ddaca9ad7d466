package model

import (
	"slices"
	"time"
)

type Status string

const (
	StatusPrivate    Status = "private"
	StatusPending    Status = "pending"
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
	StatusRemoved    Status = "removed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPrivate, StatusPending, StatusUnverified, StatusVerified, StatusRemoved:
		return true
	}
	return false
}

// Public statuses are readable by anyone.
func (s Status) Public() bool {
	return s == StatusVerified || s == StatusUnverified
}

// StatusHistoryEntry is one row of the append-only audit trail kept on
// projects and versions.
type StatusHistoryEntry struct {
	Status Status    `json:"status"`
	Reason string    `json:"reason"`
	UserID uint      `json:"user_id"`
	SetAt  time.Time `json:"set_at"`
}

type Platform string

const (
	PlatformUniversalPC    Platform = "universalpc"
	PlatformSteamPC        Platform = "steampc"
	PlatformOculusPC       Platform = "oculuspc"
	PlatformUniversalQuest Platform = "universalquest"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformUniversalPC, PlatformSteamPC, PlatformOculusPC, PlatformUniversalQuest:
		return true
	}
	return false
}

// Accepts reports whether a version built for candidate can be served to a
// client asking for p. Store-specific PC requests also accept universal PC
// builds.
func (p Platform) Accepts(candidate Platform) bool {
	if p == candidate {
		return true
	}
	return (p == PlatformSteamPC || p == PlatformOculusPC) && candidate == PlatformUniversalPC
}

// ObjectTable names the logical tables used by the edit queue and the
// snapshot cache.
type ObjectTable string

const (
	TableGames        ObjectTable = "games"
	TableGameVersions ObjectTable = "gameVersions"
	TableProjects     ObjectTable = "mods"
	TableVersions     ObjectTable = "modVersions"
	TableUsers        ObjectTable = "users"
	TableEditRequests ObjectTable = "editApprovalQueues"
)

func containsID(ids []uint, id uint) bool {
	return slices.Contains(ids, id)
}
