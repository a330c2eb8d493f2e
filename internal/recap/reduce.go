// internal/recap/reduce.go
package recap

import (
	"sort"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

// Participants without a group land under this sentinel. Its empty group id
// sorts ahead of every real group.
const UnassignedGroupName = "N/A"

// Reduce keeps the latest rating per (rater, ratee) pair and returns the
// flattened display rows sorted by group_id, then ratee_id.
//
// Latest means strictly greatest created_at. On equal timestamps the row
// later in input order wins. Insertion order (rating_id ASC from the store)
// makes this deterministic. Do not flip the tie-break to first-wins: the
// recap output is defined by it.
func Reduce(rows []models.RawRatingRow) []models.RecapRow {
	latest := make(map[string]models.RawRatingRow, len(rows))
	for _, row := range rows {
		key := row.RaterID + "-" + row.RateeID
		if prev, seen := latest[key]; seen && prev.CreatedAt > row.CreatedAt {
			continue
		}
		latest[key] = row
	}

	out := make([]models.RecapRow, 0, len(latest))
	for _, row := range latest {
		out = append(out, flatten(row))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].RateeID < out[j].RateeID
	})

	return out
}

// flatten resolves the display group: ratee's current group, else rater's,
// else the unassigned sentinel. Group reflects membership at read time, not
// at rating time.
func flatten(row models.RawRatingRow) models.RecapRow {
	groupID := ""
	groupName := UnassignedGroupName
	switch {
	case row.RateeGroupID != nil:
		groupID = *row.RateeGroupID
		groupName = *row.RateeGroupName
	case row.RaterGroupID != nil:
		groupID = *row.RaterGroupID
		groupName = *row.RaterGroupName
	}

	return models.RecapRow{
		GroupID:   groupID,
		GroupName: groupName,
		RateeID:   row.RateeID,
		RateeName: row.RateeName,
		RaterID:   row.RaterID,
		RaterName: row.RaterName,
		Score:     row.Score,
		Comment:   row.Comment,
		CreatedAt: row.CreatedAt,
	}
}

// Build fetches the joined rating set and reduces it.
func Build(s store.RatingStore) ([]models.RecapRow, error) {
	rows, err := s.ListRatingsWithJoins()
	if err != nil {
		return nil, &models.FetchError{Kind: "recap", Err: err}
	}
	return Reduce(rows), nil
}

// ForRatee reduces only the ratings naming one participant as ratee, for
// the bot's personal recap lookup.
func ForRatee(s store.RatingStore, nrp string) ([]models.RecapRow, error) {
	rows, err := s.ListRatingsForRatee(nrp)
	if err != nil {
		return nil, &models.FetchError{Kind: "recap", Err: err}
	}
	return Reduce(rows), nil
}
