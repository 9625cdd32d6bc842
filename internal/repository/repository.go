// Package repository gives each entity the same small persistence surface
// over gorm so handlers and services never build queries by hand.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Filter narrows FindByFilter. Where is passed to gorm as a map of column
// equality conditions; Scopes may add anything more involved.
type Filter struct {
	Where   map[string]any
	Order   string
	Limit   int
	Offset  int
	Preload []string
	Scopes  []func(*gorm.DB) *gorm.DB
}

type Repository[T any] struct {
	db *gorm.DB
}

func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// DB exposes the handle the repository was built on, mainly so callers can
// open a transaction and rebuild repositories on it.
func (r *Repository[T]) DB() *gorm.DB { return r.db }

func (r *Repository[T]) FindByID(ctx context.Context, id string, preload ...string) (*T, error) {
	q := r.db.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	var out T
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// FindOne returns the first row matching f, or ErrNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	f.Limit = 1
	rows, err := r.FindByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *Repository[T]) FindByFilter(ctx context.Context, f Filter) ([]T, error) {
	q := r.db.WithContext(ctx).Model(new(T))
	if len(f.Where) > 0 {
		q = q.Where(f.Where)
	}
	for _, s := range f.Scopes {
		q = q.Scopes(s)
	}
	for _, p := range f.Preload {
		q = q.Preload(p)
	}
	if f.Order != "" {
		q = q.Order(f.Order)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Save inserts or updates v depending on whether its primary key is set.
func (r *Repository[T]) Save(ctx context.Context, v *T) error {
	return translate(r.db.WithContext(ctx).Save(v).Error)
}

// Create always inserts, surfacing ErrDuplicate on unique violations.
func (r *Repository[T]) Create(ctx context.Context, v *T) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

func (r *Repository[T]) Delete(ctx context.Context, v *T) error {
	res := r.db.WithContext(ctx).Delete(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsUniqueViolation(err):
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

// IsUniqueViolation reports unique-key failures whether or not the driver
// translated them for gorm.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite builds without error translation
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
