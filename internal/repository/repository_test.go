package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
)

func newBackend(t *testing.T) *records.FileBackend {
	t.Helper()
	backend, err := records.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return backend
}

func TestUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newBackend(t))
	ctx := context.Background()

	first, err := repo.Create(ctx, models.User{Name: "A", Email: "a@x.com", Role: models.UserRoleUser})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)

	_, err = repo.Create(ctx, models.User{Name: "B", Email: "A@x.com", Role: models.UserRoleUser})
	assert.ErrorIs(t, err, ErrEmailTaken)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	repo := NewUserRepository(newBackend(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, models.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.User{Name: "B", Email: "b@x.com"})
	require.NoError(t, err)

	_, err = repo.UpdateProfile(ctx, a.ID, "", "b@x.com")
	assert.ErrorIs(t, err, ErrEmailTaken)

	updated, err := repo.UpdateProfile(ctx, a.ID, "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "a@x.com", updated.Email)

	_, err = repo.UpdateProfile(ctx, a.ID, "", "a@x.com")
	require.NoError(t, err, "keeping your own email is not a conflict")

	_, err = repo.UpdateProfile(ctx, 99, "x", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GrantCourse(t *testing.T) {
	repo := NewUserRepository(newBackend(t))
	ctx := context.Background()

	u, err := repo.Create(ctx, models.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Nil(t, u.Courses)

	granted, u, err := repo.GrantCourse(ctx, u.ID, "c1")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, u, err = repo.GrantCourse(ctx, u.ID, "c1")
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, []string{"c1"}, u.Courses)

	_, _, err = repo.GrantCourse(ctx, 42, "c1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_CoursesOmittedUntilGranted(t *testing.T) {
	backend := newBackend(t)
	repo := NewUserRepository(backend)
	_, err := repo.Create(context.Background(), models.User{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(backend.Dir(), "users.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "courses")
}

func TestPurchaseRepository_Lifecycle(t *testing.T) {
	repo := NewPurchaseRepository(newBackend(t))
	ctx := context.Background()

	p1, err := repo.Create(ctx, models.Purchase{UserID: 1, CourseID: "c1", Status: models.StatusPending, CreatedAt: time.Now()})
	require.NoError(t, err)
	p2, err := repo.Create(ctx, models.Purchase{UserID: 1, CourseID: "c1", Status: models.StatusPending, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 2, p2.ID)

	updated, err := repo.Mutate(ctx, p1.ID, func(p *models.Purchase) error {
		p.Status = models.StatusApproved
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)

	require.NoError(t, repo.Delete(ctx, p2.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p2.ID), ErrPurchaseNotFound)

	p3, err := repo.Create(ctx, models.Purchase{UserID: 2, CourseID: "c2", Status: models.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 2, p3.ID, "next id follows the highest remaining id")

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestReviewRepository_ListApprovedByCourse(t *testing.T) {
	repo := NewReviewRepository(newBackend(t))
	ctx := context.Background()

	for _, r := range []models.Review{
		{CourseID: "c1", Status: models.StatusApproved, Rating: 5},
		{CourseID: "c1", Status: models.StatusPending, Rating: 4},
		{CourseID: "c2", Status: models.StatusApproved, Rating: 3},
	} {
		_, err := repo.Create(ctx, r)
		require.NoError(t, err)
	}

	approved, err := repo.ListApprovedByCourse(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, 1, approved[0].ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCourseRepository_GetByID(t *testing.T) {
	backend := newBackend(t)
	seed, err := records.Encode([]models.Course{{ID: "c1", Title: "Go"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(backend.Dir(), "courses.json"), seed, 0o644))

	repo := NewCourseRepository(backend)
	course, err := repo.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Go", course.Title)

	_, err = repo.GetByID(context.Background(), "c9")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
