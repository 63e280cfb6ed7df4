package domain

import (
	"context"
	"regexp"
)

// ReservedColumns are the fixed reading columns that can never become reading types.
var ReservedColumns = []string{"id", "username", "month", "year", "created_at"}

var typeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidTypeName reports whether name can be used as a reading type.
func ValidTypeName(name string) bool {
	if !typeNamePattern.MatchString(name) {
		return false
	}
	for _, r := range ReservedColumns {
		if name == r {
			return false
		}
	}
	return true
}

// ColumnStore is the external source of truth for reading types.
// ListColumns excludes ReservedColumns.
type ColumnStore interface {
	AddColumn(ctx context.Context, name string) error
	DropColumn(ctx context.Context, name string) error
	ListColumns(ctx context.Context) ([]string, error)
}
