package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicate reports a uniqueness violation. TranslateError covers both
// dialects; the message check catches errors raised inside raw statements.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
