package recap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func row(id int64, rater, ratee string, score int, createdAt int64) models.RawRatingRow {
	return models.RawRatingRow{
		RatingID:       id,
		RaterID:        rater,
		RaterName:      "Rater " + rater,
		RateeID:        ratee,
		RateeName:      "Ratee " + ratee,
		RateeGroupID:   strPtr("G1"),
		RateeGroupName: strPtr("Team A"),
		RaterGroupID:   strPtr("G1"),
		RaterGroupName: strPtr("Team A"),
		Score:          score,
		Comment:        "",
		CreatedAt:      createdAt,
	}
}

func TestReduce_LatestPerPairWins(t *testing.T) {
	rows := []models.RawRatingRow{
		row(1, "S1", "S2", 3, 100),
		row(2, "S1", "S2", 5, 200),
	}

	out := Reduce(rows)

	assert.Len(t, out, 1)
	assert.Equal(t, 5, out[0].Score)
	assert.Equal(t, int64(200), out[0].CreatedAt)
}

func TestReduce_OlderRowNeverReplacesNewer(t *testing.T) {
	// fetch order is rating_id, but the newer timestamp comes first here
	rows := []models.RawRatingRow{
		row(1, "S1", "S2", 5, 200),
		row(2, "S1", "S2", 3, 100),
	}

	out := Reduce(rows)

	assert.Len(t, out, 1)
	assert.Equal(t, 5, out[0].Score)
}

func TestReduce_TieKeepsLaterInputRow(t *testing.T) {
	rows := []models.RawRatingRow{
		row(1, "S1", "S2", 2, 100),
		row(2, "S1", "S2", 4, 100),
	}

	out := Reduce(rows)

	assert.Len(t, out, 1)
	assert.Equal(t, 4, out[0].Score, "equal timestamps: the row later in input order wins")
}

func TestReduce_DistinctPairsAreKept(t *testing.T) {
	rows := []models.RawRatingRow{
		row(1, "S1", "S2", 3, 100),
		row(2, "S2", "S1", 4, 100),
		row(3, "S1", "S3", 5, 100),
	}

	out := Reduce(rows)

	assert.Len(t, out, 3)
}

func TestReduce_GroupResolution(t *testing.T) {
	testCases := []struct {
		name          string
		row           models.RawRatingRow
		wantGroupID   string
		wantGroupName string
	}{
		{
			name: "ratee group preferred",
			row: models.RawRatingRow{
				RatingID: 1, RaterID: "S1", RateeID: "S2",
				RaterGroupID: strPtr("G9"), RaterGroupName: strPtr("Other"),
				RateeGroupID: strPtr("G1"), RateeGroupName: strPtr("Team A"),
				CreatedAt: 1,
			},
			wantGroupID:   "G1",
			wantGroupName: "Team A",
		},
		{
			name: "rater group when ratee has none",
			row: models.RawRatingRow{
				RatingID: 1, RaterID: "S1", RateeID: "S2",
				RaterGroupID: strPtr("G9"), RaterGroupName: strPtr("Other"),
				CreatedAt: 1,
			},
			wantGroupID:   "G9",
			wantGroupName: "Other",
		},
		{
			name: "sentinel when neither has a group",
			row: models.RawRatingRow{
				RatingID: 1, RaterID: "S1", RateeID: "S2",
				CreatedAt: 1,
			},
			wantGroupID:   "",
			wantGroupName: UnassignedGroupName,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Reduce([]models.RawRatingRow{tc.row})
			assert.Len(t, out, 1)
			assert.Equal(t, tc.wantGroupID, out[0].GroupID)
			assert.Equal(t, tc.wantGroupName, out[0].GroupName)
		})
	}
}

func TestReduce_SortsByGroupThenRatee(t *testing.T) {
	g2 := row(1, "S1", "S9", 3, 100)
	g2.RateeGroupID = strPtr("G2")
	g2.RateeGroupName = strPtr("Team B")

	rows := []models.RawRatingRow{
		g2,
		row(2, "S1", "S3", 3, 100),
		row(3, "S1", "S2", 3, 100),
	}

	out := Reduce(rows)

	assert.Len(t, out, 3)
	assert.Equal(t, "S2", out[0].RateeID)
	assert.Equal(t, "G1", out[0].GroupID)
	assert.Equal(t, "S3", out[1].RateeID)
	assert.Equal(t, "S9", out[2].RateeID)
	assert.Equal(t, "G2", out[2].GroupID)
}

func TestReduce_Idempotent(t *testing.T) {
	rows := []models.RawRatingRow{
		row(1, "S1", "S2", 3, 100),
		row(2, "S1", "S2", 5, 200),
		row(3, "S2", "S1", 4, 150),
		row(4, "S3", "S1", 1, 150),
	}

	first := Reduce(rows)
	second := Reduce(rows)

	assert.Equal(t, first, second)
}

func TestReduce_EmptyInput(t *testing.T) {
	out := Reduce(nil)
	assert.Empty(t, out)
}
