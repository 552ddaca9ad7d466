package service

import (
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/access"
)

func canApprove(u *model.User, game string) bool {
	return access.HasCapability(u, access.CapApprove, access.Game(game))
}

// canAuthor is true for approvers of the game and for listed authors who may
// still post in it.
func canAuthor(u *model.User, game string, authorIDs []uint) bool {
	if u == nil {
		return false
	}
	if canApprove(u, game) {
		return true
	}
	if !access.HasCapability(u, access.CapPost, access.Game(game)) {
		return false
	}
	for _, id := range authorIDs {
		if id == u.ID {
			return true
		}
	}
	return false
}
