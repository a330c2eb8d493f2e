package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
)

type RatingStore interface {
	Close() error
	ApplyMigrations(dir string) error

	ListClasses() ([]models.Class, error)
	ListGroups(classID string) ([]models.Group, error)
	ListParticipants(groupID string) ([]models.Participant, error)
	GetParticipant(nrp string) (*models.Participant, error)

	CreateClass(class models.Class) error
	CreateGroup(group models.Group) error
	CreateParticipant(participant models.Participant) error
	AssignParticipant(nrp, groupID string) error

	CreateRating(rating *models.Rating) error
	ListRatingsWithJoins() ([]models.RawRatingRow, error)
	ListRatingsForRatee(nrp string) ([]models.RawRatingRow, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) ListClasses() ([]models.Class, error) {
	var classes []models.Class
	err := s.DB.Select(&classes, `
		SELECT class_id, class_name
		FROM classes
		ORDER BY class_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (s *BaseStore) ListGroups(classID string) ([]models.Group, error) {
	var groups []models.Group
	query := s.Converter(`
		SELECT group_id, class_id, group_name
		FROM groups
		WHERE class_id = ?
		ORDER BY group_id ASC
	`)

	err := s.DB.Select(&groups, query, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *BaseStore) ListParticipants(groupID string) ([]models.Participant, error) {
	var participants []models.Participant
	query := s.Converter(`
		SELECT nrp, full_name, group_id
		FROM participants
		WHERE group_id = ?
		ORDER BY nrp ASC
	`)

	err := s.DB.Select(&participants, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (s *BaseStore) GetParticipant(nrp string) (*models.Participant, error) {
	var participant models.Participant
	query := s.Converter(`
		SELECT nrp, full_name, group_id
		FROM participants
		WHERE nrp = ?
	`)

	err := s.DB.Get(&participant, query, nrp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &participant, nil
}

func (s *BaseStore) CreateClass(class models.Class) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO classes (class_id, class_name)
		VALUES (:class_id, :class_name)
		ON CONFLICT(class_id) DO UPDATE SET
		class_name = :class_name
	`, class)
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

func (s *BaseStore) CreateGroup(group models.Group) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO groups (group_id, class_id, group_name)
		VALUES (:group_id, :class_id, :group_name)
		ON CONFLICT(group_id) DO UPDATE SET
		class_id = :class_id,
		group_name = :group_name
	`, group)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (s *BaseStore) CreateParticipant(participant models.Participant) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO participants (nrp, full_name, group_id)
		VALUES (:nrp, :full_name, :group_id)
		ON CONFLICT(nrp) DO UPDATE SET
		full_name = :full_name,
		group_id = :group_id
	`, participant)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (s *BaseStore) AssignParticipant(nrp, groupID string) error {
	query := s.Converter(`
		UPDATE participants
		SET group_id = ?
		WHERE nrp = ?
	`)

	res, err := s.DB.Exec(query, groupID, nrp)
	if err != nil {
		return fmt.Errorf("failed to assign participant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no participant with nrp %s", nrp)
	}
	return nil
}

// StampRating defaults created_at to now for rows built without an
// explicit timestamp
func StampRating(rating *models.Rating) {
	if rating.CreatedAt == 0 {
		rating.CreatedAt = time.Now().Unix()
	}
}

const ratingJoinSelect = `
	SELECT
		r.rating_id,
		r.rater_id,
		p_rater.full_name AS rater_name,
		g_rater.group_id AS rater_group_id,
		g_rater.group_name AS rater_group_name,
		r.ratee_id,
		p_ratee.full_name AS ratee_name,
		g_ratee.group_id AS ratee_group_id,
		g_ratee.group_name AS ratee_group_name,
		r.rating_score,
		r.rating_comment,
		r.created_at
	FROM ratings r
	JOIN participants p_rater ON p_rater.nrp = r.rater_id
	JOIN participants p_ratee ON p_ratee.nrp = r.ratee_id
	LEFT JOIN groups g_rater ON g_rater.group_id = p_rater.group_id
	LEFT JOIN groups g_ratee ON g_ratee.group_id = p_ratee.group_id
`

// ListRatingsWithJoins fetches every rating with denormalized rater/ratee
// attributes. Rows come back in insertion order (rating_id), which is the
// tie-break order the recap reducer relies on.
func (s *BaseStore) ListRatingsWithJoins() ([]models.RawRatingRow, error) {
	var rows []models.RawRatingRow
	err := s.DB.Select(&rows, ratingJoinSelect+`
	ORDER BY r.rating_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}
	return rows, nil
}

func (s *BaseStore) ListRatingsForRatee(nrp string) ([]models.RawRatingRow, error) {
	var rows []models.RawRatingRow
	query := s.Converter(ratingJoinSelect + `
	WHERE r.ratee_id = ?
	ORDER BY r.rating_id ASC
	`)

	err := s.DB.Select(&rows, query, nrp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ratings for %s: %w", nrp, err)
	}
	return rows, nil
}
