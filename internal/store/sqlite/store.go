// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// an in-memory database exists per connection, so the pool must not
	// open a second one
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect. Replacements
// run in order, longest pattern first.
func translateToSQLite(sql string) string {
	replacements := []struct {
		from string
		to   string
	}{
		{"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"BIGSERIAL", "INTEGER"},
		{"BIGINT", "INTEGER"},
		{"TRUE", "1"},
		{"FALSE", "0"},
		{"now()", "CURRENT_TIMESTAMP"},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}

func (s *SQLiteStore) CreateRating(rating *models.Rating) error {
	store.StampRating(rating)

	res, err := s.DB.NamedExec(`
		INSERT INTO ratings (rater_id, ratee_id, rating_score, rating_comment, created_at)
		VALUES (:rater_id, :ratee_id, :rating_score, :rating_comment, :created_at)
	`, rating)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		rating.RatingID = id
	}
	return nil
}
