package models

import "slices"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
	Courses  []string `json:"courses,omitempty"`
}

func (u User) OwnsCourse(courseID string) bool {
	return slices.Contains(u.Courses, courseID)
}

// GrantCourse appends courseID unless the user already owns it and reports
// whether the course list changed.
func (u *User) GrantCourse(courseID string) bool {
	if u.OwnsCourse(courseID) {
		return false
	}
	u.Courses = append(u.Courses, courseID)
	return true
}

// Identity is the subset of a user carried inside an access token.
type Identity struct {
	ID    int
	Email string
	Role  UserRole
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (u User) RecordID() int { return u.ID }
