package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RatingInput {
	return RatingInput{
		ClassID: "C1",
		GroupID: "G1",
		RaterID: "S1",
		RateeID: "S2",
		Score:   4,
		Comment: "Great work",
	}
}

func TestRatingInput_Validate(t *testing.T) {
	t.Run("valid input passes", func(t *testing.T) {
		in := validInput()
		assert.NoError(t, in.Validate())
	})

	t.Run("comment is optional", func(t *testing.T) {
		in := validInput()
		in.Comment = ""
		assert.NoError(t, in.Validate())
	})

	testCases := []struct {
		name      string
		mutate    func(*RatingInput)
		wantField string
	}{
		{
			name:      "empty class",
			mutate:    func(in *RatingInput) { in.ClassID = "" },
			wantField: "class",
		},
		{
			name:      "empty group",
			mutate:    func(in *RatingInput) { in.GroupID = "" },
			wantField: "group",
		},
		{
			name:      "empty rater",
			mutate:    func(in *RatingInput) { in.RaterID = "" },
			wantField: "rater",
		},
		{
			name:      "empty ratee",
			mutate:    func(in *RatingInput) { in.RateeID = "" },
			wantField: "ratee",
		},
		{
			name:      "self rating",
			mutate:    func(in *RatingInput) { in.RateeID = in.RaterID },
			wantField: "ratee",
		},
		{
			name:      "zero score",
			mutate:    func(in *RatingInput) { in.Score = 0 },
			wantField: "score",
		},
		{
			name:      "score below range",
			mutate:    func(in *RatingInput) { in.Score = -1 },
			wantField: "score",
		},
		{
			name:      "score above range",
			mutate:    func(in *RatingInput) { in.Score = 6 },
			wantField: "score",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := in.Validate()

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantField, vErr.Field)
		})
	}
}

func TestRatingInput_ValidationOrderIsFixed(t *testing.T) {
	// everything is wrong: the first offending field in
	// class, group, rater, ratee, score order must be reported
	in := RatingInput{Score: 99}

	err := in.Validate()

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "class", vErr.Field)

	in.ClassID = "C1"
	err = in.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "group", vErr.Field)

	in.GroupID = "G1"
	err = in.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "rater", vErr.Field)

	in.RaterID = "S1"
	err = in.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "ratee", vErr.Field)

	in.RateeID = "S2"
	err = in.Validate()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "score", vErr.Field)
}

func TestRatingInput_ToRating(t *testing.T) {
	in := validInput()
	rating := in.ToRating()

	assert.Equal(t, "S1", rating.RaterID)
	assert.Equal(t, "S2", rating.RateeID)
	assert.Equal(t, 4, rating.Score)
	assert.Equal(t, "Great work", rating.Comment)
	assert.Zero(t, rating.RatingID, "id is assigned by the store")
	assert.Zero(t, rating.CreatedAt, "timestamp is stamped at write time")
}
