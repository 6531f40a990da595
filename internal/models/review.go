package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	CourseID  string    `json:"courseId"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r Review) RecordID() int { return r.ID }

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
