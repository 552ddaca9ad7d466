package repo

import (
	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

// saveLive writes every column of an already stored entity except its key,
// creation time and counters. Counters only move through their own atomic
// updates, so a row loaded before an increment cannot roll it back.
func saveLive(tx *gorm.DB, target any) error {
	omit := []string{"ID", "CreatedAt"}
	if _, ok := target.(*model.Version); ok {
		omit = append(omit, "DownloadCount")
	}
	return tx.Model(target).Select("*").Omit(omit...).Updates(target).Error
}
