package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     error
	}{
		{StatusPending, StatusApproved, nil},
		{StatusPending, StatusRejected, nil},
		{StatusApproved, StatusApproved, nil},
		{StatusRejected, StatusRejected, nil},
		{StatusApproved, StatusRejected, ErrInvalidTransition},
		{StatusRejected, StatusApproved, ErrInvalidTransition},
		{StatusApproved, StatusPending, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.ErrorIs(t, CheckTransition(tt.from, tt.to), tt.want)
		})
	}
}

func TestParseDecision(t *testing.T) {
	s, err := ParseDecision("approved")
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseDecision("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGrantCourseIsIdempotent(t *testing.T) {
	u := User{ID: 1}
	assert.True(t, u.GrantCourse("c1"))
	assert.False(t, u.GrantCourse("c1"))
	assert.Equal(t, []string{"c1"}, u.Courses)
}
