package models

// RawRatingRow is a rating joined with both participants and their current
// group memberships, as fetched for the recap view. Group columns are nil
// for participants without a group.
type RawRatingRow struct {
	RatingID       int64   `db:"rating_id"`
	RaterID        string  `db:"rater_id"`
	RaterName      string  `db:"rater_name"`
	RaterGroupID   *string `db:"rater_group_id"`
	RaterGroupName *string `db:"rater_group_name"`
	RateeID        string  `db:"ratee_id"`
	RateeName      string  `db:"ratee_name"`
	RateeGroupID   *string `db:"ratee_group_id"`
	RateeGroupName *string `db:"ratee_group_name"`
	Score          int     `db:"rating_score"`
	Comment        string  `db:"rating_comment"`
	CreatedAt      int64   `db:"created_at"`
}

// RecapRow is one flattened display row: the latest rating for a
// (rater, ratee) pair under the ratee's resolved group.
type RecapRow struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	RateeID   string `json:"ratee_id"`
	RateeName string `json:"ratee_name"`
	RaterID   string `json:"rater_id"`
	RaterName string `json:"rater_name"`
	Score     int    `json:"rating_score"`
	Comment   string `json:"rating_comment"`
	CreatedAt int64  `json:"created_at"`
}
