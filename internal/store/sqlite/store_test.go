// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
)

// setupTestDB creates an in-memory SQLite database and initializes schema
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	// Create tables directly instead of using migrations for tests
	schema := `
	CREATE TABLE IF NOT EXISTS classes (
		class_id TEXT NOT NULL PRIMARY KEY,
		class_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS groups (
		group_id TEXT NOT NULL PRIMARY KEY,
		class_id TEXT NOT NULL REFERENCES classes (class_id),
		group_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS participants (
		nrp TEXT NOT NULL PRIMARY KEY,
		full_name TEXT NOT NULL,
		group_id TEXT REFERENCES groups (group_id)
	);

	CREATE TABLE IF NOT EXISTS ratings (
		rating_id INTEGER PRIMARY KEY AUTOINCREMENT,
		rater_id TEXT NOT NULL REFERENCES participants (nrp),
		ratee_id TEXT NOT NULL REFERENCES participants (nrp),
		rating_score INTEGER NOT NULL CHECK (rating_score BETWEEN 1 AND 5),
		rating_comment TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		CHECK (rater_id <> ratee_id)
	);`

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err, "Failed to create store")

	_, err = s.DB.Exec(schema)
	require.NoError(t, err, "Failed to create schema")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type testData struct {
	store *SQLiteStore
	now   time.Time
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	_, err := s.DB.Exec(`
		INSERT INTO classes (class_id, class_name) VALUES
		('C1', 'CS101'),
		('C2', 'CS202')`)
	require.NoError(t, err, "Failed to insert classes")

	_, err = s.DB.Exec(`
		INSERT INTO groups (group_id, class_id, group_name) VALUES
		('G1', 'C1', 'Team A'),
		('G2', 'C1', 'Team B'),
		('G3', 'C2', 'Team C')`)
	require.NoError(t, err, "Failed to insert groups")

	_, err = s.DB.Exec(`
		INSERT INTO participants (nrp, full_name, group_id) VALUES
		('S1', 'Alice', 'G1'),
		('S2', 'Bob', 'G1'),
		('S3', 'Carol', 'G2'),
		('S4', 'Dave', NULL)`)
	require.NoError(t, err, "Failed to insert participants")

	return &testData{
		store: s,
		now:   now,
	}, cleanup
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestOptionListQueries(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("list classes", func(t *testing.T) {
		classes, err := td.store.ListClasses()
		require.NoError(t, err)
		require.Len(t, classes, 2)
		assert.Equal(t, "C1", classes[0].ClassID)
	})

	t.Run("list groups filters by class", func(t *testing.T) {
		groups, err := td.store.ListGroups("C1")
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "G1", groups[0].GroupID)
		assert.Equal(t, "G2", groups[1].GroupID)
	})

	t.Run("list groups for unknown class is empty", func(t *testing.T) {
		groups, err := td.store.ListGroups("nope")
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("list participants filters by group", func(t *testing.T) {
		participants, err := td.store.ListParticipants("G1")
		require.NoError(t, err)
		require.Len(t, participants, 2)
		assert.Equal(t, "S1", participants[0].NRP)
		assert.Equal(t, "Alice", participants[0].FullName)
	})
}

func TestGetParticipant(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("existing participant", func(t *testing.T) {
		got, err := td.store.GetParticipant("S1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Alice", got.FullName)
		require.NotNil(t, got.GroupID)
		assert.Equal(t, "G1", *got.GroupID)
	})

	t.Run("participant without group", func(t *testing.T) {
		got, err := td.store.GetParticipant("S4")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.GroupID)
	})

	t.Run("missing participant", func(t *testing.T) {
		got, err := td.store.GetParticipant("not.exists")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCreateRating(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("assigns id and stamps created_at", func(t *testing.T) {
		rating := models.Rating{
			RaterID: "S1",
			RateeID: "S2",
			Score:   4,
			Comment: "Great work",
		}

		err := td.store.CreateRating(&rating)
		require.NoError(t, err)
		assert.NotZero(t, rating.RatingID)
		assert.NotZero(t, rating.CreatedAt)
	})

	t.Run("keeps explicit created_at", func(t *testing.T) {
		rating := models.Rating{
			RaterID:   "S2",
			RateeID:   "S1",
			Score:     5,
			CreatedAt: td.now.Unix(),
		}

		err := td.store.CreateRating(&rating)
		require.NoError(t, err)
		assert.Equal(t, td.now.Unix(), rating.CreatedAt)
	})

	t.Run("score outside range is rejected by constraint", func(t *testing.T) {
		rating := models.Rating{
			RaterID: "S1",
			RateeID: "S2",
			Score:   9,
		}

		err := td.store.CreateRating(&rating)
		assert.Error(t, err)
	})

	t.Run("self rating is rejected by constraint", func(t *testing.T) {
		rating := models.Rating{
			RaterID: "S1",
			RateeID: "S1",
			Score:   5,
		}

		err := td.store.CreateRating(&rating)
		assert.Error(t, err)
	})
}

func TestListRatingsWithJoins(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	ratings := []models.Rating{
		{RaterID: "S1", RateeID: "S2", Score: 3, Comment: "ok", CreatedAt: td.now.Unix()},
		{RaterID: "S2", RateeID: "S1", Score: 5, CreatedAt: td.now.Add(time.Hour).Unix()},
		{RaterID: "S1", RateeID: "S4", Score: 2, CreatedAt: td.now.Unix()},
	}
	for i := range ratings {
		require.NoError(t, td.store.CreateRating(&ratings[i]))
	}

	rows, err := td.store.ListRatingsWithJoins()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	t.Run("rows come back in insertion order", func(t *testing.T) {
		assert.Equal(t, ratings[0].RatingID, rows[0].RatingID)
		assert.Equal(t, ratings[1].RatingID, rows[1].RatingID)
		assert.Equal(t, ratings[2].RatingID, rows[2].RatingID)
	})

	t.Run("participant and group attributes are joined", func(t *testing.T) {
		first := rows[0]
		assert.Equal(t, "Alice", first.RaterName)
		assert.Equal(t, "Bob", first.RateeName)
		require.NotNil(t, first.RateeGroupID)
		assert.Equal(t, "G1", *first.RateeGroupID)
		require.NotNil(t, first.RateeGroupName)
		assert.Equal(t, "Team A", *first.RateeGroupName)
	})

	t.Run("ungrouped ratee has nil group columns", func(t *testing.T) {
		last := rows[2]
		assert.Equal(t, "S4", last.RateeID)
		assert.Nil(t, last.RateeGroupID)
		require.NotNil(t, last.RaterGroupID)
		assert.Equal(t, "G1", *last.RaterGroupID)
	})

	t.Run("filter by ratee", func(t *testing.T) {
		mine, err := td.store.ListRatingsForRatee("S1")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "S2", mine[0].RaterID)
	})
}

func TestProvisioningOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("create class upserts", func(t *testing.T) {
		err := td.store.CreateClass(models.Class{ClassID: "C1", ClassName: "CS101 renamed"})
		require.NoError(t, err)

		classes, err := td.store.ListClasses()
		require.NoError(t, err)
		require.Len(t, classes, 2)
		assert.Equal(t, "CS101 renamed", classes[0].ClassName)
	})

	t.Run("create group", func(t *testing.T) {
		err := td.store.CreateGroup(models.Group{GroupID: "G9", ClassID: "C2", GroupName: "Team Z"})
		require.NoError(t, err)

		groups, err := td.store.ListGroups("C2")
		require.NoError(t, err)
		assert.Len(t, groups, 2)
	})

	t.Run("create and assign participant", func(t *testing.T) {
		err := td.store.CreateParticipant(models.Participant{NRP: "S9", FullName: "Eve"})
		require.NoError(t, err)

		err = td.store.AssignParticipant("S9", "G1")
		require.NoError(t, err)

		got, err := td.store.GetParticipant("S9")
		require.NoError(t, err)
		require.NotNil(t, got.GroupID)
		assert.Equal(t, "G1", *got.GroupID)
	})

	t.Run("assign unknown participant fails", func(t *testing.T) {
		err := td.store.AssignParticipant("ghost", "G1")
		assert.Error(t, err)
	})
}
