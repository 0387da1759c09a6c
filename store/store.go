package store

import (
	"context"
	"database/sql"
)

// Driver is the storage backend behind Store.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	UpsertDocument(ctx context.Context, doc *Document) (*Document, error)
	SearchDocuments(ctx context.Context, find *FindDocument) ([]*DocumentHit, error)
	CountDocuments(ctx context.Context) (int64, error)
	DeleteDocument(ctx context.Context, path string) error
}

// DocumentSearcher is the read side used by the file search capability.
type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, find *FindDocument) ([]*DocumentHit, error)
}

// Store provides access to the local document index.
type Store struct {
	driver Driver
}

// New creates a new instance of Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) UpsertDocument(ctx context.Context, doc *Document) (*Document, error) {
	return s.driver.UpsertDocument(ctx, doc)
}

// SearchDocuments applies DefaultSearchLimit and skips the driver for
// queries with no searchable terms.
func (s *Store) SearchDocuments(ctx context.Context, find *FindDocument) ([]*DocumentHit, error) {
	if find == nil || MatchExpression(find.Query) == "" {
		return nil, nil
	}
	if find.Limit <= 0 {
		find = &FindDocument{Query: find.Query, Limit: DefaultSearchLimit}
	}
	return s.driver.SearchDocuments(ctx, find)
}

func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	return s.driver.CountDocuments(ctx)
}

func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	return s.driver.DeleteDocument(ctx, path)
}
