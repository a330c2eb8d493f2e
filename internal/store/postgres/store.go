package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// CreateRating inserts exactly one append-only rating row and reads the
// assigned id back via RETURNING.
func (s *PostgresStore) CreateRating(rating *models.Rating) error {
	store.StampRating(rating)

	err := s.DB.QueryRowx(`
		INSERT INTO ratings (rater_id, ratee_id, rating_score, rating_comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING rating_id
	`,
		rating.RaterID,
		rating.RateeID,
		rating.Score,
		rating.Comment,
		rating.CreatedAt,
	).Scan(&rating.RatingID)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}
