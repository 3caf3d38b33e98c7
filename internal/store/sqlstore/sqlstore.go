// Package sqlstore persists shopping list items in a local SQLite database.
//
// A Store owns the items table. Reads come either as a one-off List or as a
// live FetchAll stream; every insert or delete that changes a row pushes a
// fresh full snapshot to all open streams.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store/feed"
	"github.com/idilsaglam/shoplist/internal/store/migrations"
)

const (
	insertItemSQL = `INSERT INTO items (name) VALUES (?)`
	deleteItemSQL = `DELETE FROM items WHERE id = ? AND name = ?`
	selectAllSQL  = `SELECT id, name FROM items ORDER BY id`
)

// Store is the SQLite-backed item table.
type Store struct {
	db     *sql.DB
	feed   *feed.Feed
	logger *slog.Logger

	// mu orders "mutate, re-read, publish" so a stream never sees an older
	// snapshot after a newer one.
	mu sync.Mutex
}

// Open creates or opens the database at path and brings the schema up to
// date. Parent directories are created if needed.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, failure("creating database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, failure("opening database", err)
	}
	// SQLite has a single writer; one connection keeps pragmas and
	// :memory: databases consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, failure(pragma, err)
		}
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, failure("running migrations", err)
	}

	s := New(db, logger)
	s.logger.Info("item store opened", "path", path)
	return s, nil
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return gooseUp(ctx, db, ".")
}

// New wraps a database that already has the items table.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")
	return &Store{
		db:     db,
		feed:   feed.New(logger),
		logger: logger,
	}
}

// FetchAll returns a live stream of the whole list. The current snapshot is
// delivered first; after that one snapshot follows every change. The stream
// is closed when ctx is done or the store is closed.
func (s *Store) FetchAll(ctx context.Context) (<-chan []model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	ch, _ := s.feed.Subscribe(ctx, items)
	return ch, nil
}

// List returns every stored item in insertion order.
func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	return s.list(ctx)
}

// Insert stores a new item named name. The store does not validate name.
func (s *Store) Insert(ctx context.Context, name string) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, insertItemSQL, name)
	if err != nil {
		return model.Item{}, failure("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, failure("read inserted id", err)
	}

	item := model.Item{ID: id, Name: name}
	s.logger.Debug("item inserted", "id", id, "name", name)

	s.publish(ctx)
	return item, nil
}

// Delete removes the row matching both the id and the name of item.
// Deleting an item that is not stored is not an error.
func (s *Store) Delete(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, deleteItemSQL, item.ID, item.Name)
	if err != nil {
		return failure("delete item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return failure("read deleted rows", err)
	}
	if n == 0 {
		s.logger.Debug("delete matched nothing", "id", item.ID)
		return nil
	}

	s.logger.Debug("item deleted", "id", item.ID)
	s.publish(ctx)
	return nil
}

// Close ends every open stream and closes the database.
func (s *Store) Close() error {
	s.feed.Close()
	return s.db.Close()
}

// publish re-reads the table for open streams. The mutation already
// committed, so a failed re-read is logged rather than returned.
func (s *Store) publish(ctx context.Context) {
	if s.feed.Len() == 0 {
		return
	}
	items, err := s.list(ctx)
	if err != nil {
		s.logger.Error("snapshot after write failed", "err", err)
		return
	}
	s.feed.Publish(items)
}

func (s *Store) list(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, failure("select items", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, failure("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, failure("iterate items", err)
	}
	return items, nil
}
