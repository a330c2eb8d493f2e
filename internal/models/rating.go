package models

import (
	"github.com/go-playground/validator/v10"
)

type Class struct {
	ClassID   string `db:"class_id" json:"class_id" validate:"required"`
	ClassName string `db:"class_name" json:"class_name" validate:"required"`
}

type Group struct {
	GroupID   string `db:"group_id" json:"group_id" validate:"required"`
	ClassID   string `db:"class_id" json:"class_id" validate:"required"`
	GroupName string `db:"group_name" json:"group_name" validate:"required"`
}

// Participant is a student identified by NRP. GroupID is nil until the
// participant is assigned to a project group.
type Participant struct {
	NRP      string  `db:"nrp" json:"nrp" validate:"required"`
	FullName string  `db:"full_name" json:"full_name" validate:"required"`
	GroupID  *string `db:"group_id" json:"group_id,omitempty"`
}

// Rating is append-only: a re-rating of the same teammate creates a new
// row, it never overwrites.
type Rating struct {
	RatingID  int64  `db:"rating_id" json:"rating_id"`
	RaterID   string `db:"rater_id" json:"rater_id" validate:"required"`
	RateeID   string `db:"ratee_id" json:"ratee_id" validate:"required,nefield=RaterID"`
	Score     int    `db:"rating_score" json:"rating_score" validate:"required,min=1,max=5"`
	Comment   string `db:"rating_comment" json:"rating_comment"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

// RatingInput is the assembled form state handed to the submission writer.
// Field order matters: validation reports the first offending field in
// declaration order, class before group before rater before ratee before
// score.
type RatingInput struct {
	ClassID string `json:"class_id" validate:"required"`
	GroupID string `json:"group_id" validate:"required"`
	RaterID string `json:"rater_id" validate:"required"`
	RateeID string `json:"ratee_id" validate:"required,nefield=RaterID"`
	Score   int    `json:"rating_score" validate:"required,min=1,max=5"`
	Comment string `json:"rating_comment"`
}

var fieldNames = map[string]string{
	"ClassID": "class",
	"GroupID": "group",
	"RaterID": "rater",
	"RateeID": "ratee",
	"Score":   "score",
}

func (in *RatingInput) Validate() error {
	validate := validator.New()
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := fieldNames[first.StructField()]
	if field == "" {
		field = first.StructField()
	}

	reason := "is required"
	switch first.Tag() {
	case "min", "max":
		reason = "must be between 1 and 5"
	case "nefield":
		reason = "must differ from rater"
	}

	return &ValidationError{Field: field, Reason: reason}
}

// Rating built from a validated input. ClassID and GroupID only scope the
// selection, they are not persisted on the rating row.
func (in *RatingInput) ToRating() *Rating {
	return &Rating{
		RaterID: in.RaterID,
		RateeID: in.RateeID,
		Score:   in.Score,
		Comment: in.Comment,
	}
}
