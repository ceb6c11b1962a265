package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Driver messages for stores opened without gorm's error translation.
var (
	duplicateKeyMessages = []string{
		"duplicate key value violates unique constraint", // postgres 23505
		"Error 1062",               // mysql
		"UNIQUE constraint failed", // sqlite
	}
	foreignKeyMessages = []string{
		"violates foreign key constraint", // postgres 23503
		"Error 1452",                      // mysql
		"FOREIGN KEY constraint failed",   // sqlite
	}
)

// IsDuplicateKeyErr reports a unique index violation, such as a second
// provider with the same name.
func IsDuplicateKeyErr(err error) bool {
	return matches(err, gorm.ErrDuplicatedKey, duplicateKeyMessages)
}

// IsForeignKeyErr reports a reference to a missing row, such as a truck
// pointing at an unknown provider.
func IsForeignKeyErr(err error) bool {
	return matches(err, gorm.ErrForeignKeyViolated, foreignKeyMessages)
}

func matches(err, sentinel error, messages []string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sentinel) {
		return true
	}
	msg := err.Error()
	for _, m := range messages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
