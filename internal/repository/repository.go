package repository

import (
	"database/sql"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicate reports a unique index violation; it needs TranslateError.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page to >= 1 and limit to (0, 100], defaulting to 20.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows)
}

// wrap maps missing rows to ErrNotFound, unique violations to ErrDuplicate
// and annotates everything else.
func wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return errors.Wrapf(err, format, args...)
}
