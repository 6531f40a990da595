package models

import "time"

type Purchase struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	CourseID  string    `json:"courseId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Purchase) RecordID() int { return p.ID }
