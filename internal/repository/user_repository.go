package repository

import (
	"context"
	"errors"
	"strings"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepository struct {
	users *records.Collection[models.User]
}

func NewUserRepository(backend records.Backend) *UserRepository {
	return &UserRepository{users: records.NewCollection[models.User](backend, records.Users)}
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.users.All(ctx)
}

// Create assigns the next id and stores the user. Email uniqueness is
// checked under the same lock as the insert.
func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		if emailInUse(users, user.Email, 0) {
			return nil, ErrEmailTaken
		}
		user.ID = records.NextID(users)
		return append(users, user), nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	users, err := r.users.All(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (models.User, error) {
	return getOne(ctx, r.users, id, ErrUserNotFound)
}

func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	users, err := r.users.All(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, user := range users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// UpdateProfile changes name and email; empty values keep the current one.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, name string, email string) (models.User, error) {
	var updated models.User
	err := r.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		idx, ok := findByID(users, id)
		if !ok {
			return nil, ErrUserNotFound
		}
		if email != "" && emailInUse(users, email, id) {
			return nil, ErrEmailTaken
		}
		if name != "" {
			users[idx].Name = name
		}
		if email != "" {
			users[idx].Email = email
		}
		updated = users[idx]
		return users, nil
	})
	return updated, err
}

func (r *UserRepository) SetPassword(ctx context.Context, id int, passwordHash string) error {
	_, err := mutateOne(ctx, r.users, id, ErrUserNotFound, func(u *models.User) error {
		u.Password = passwordHash
		return nil
	})
	return err
}

// GrantCourse adds courseID to the user's courses. granted is false when
// the user already owned it.
func (r *UserRepository) GrantCourse(ctx context.Context, id int, courseID string) (granted bool, user models.User, err error) {
	user, err = mutateOne(ctx, r.users, id, ErrUserNotFound, func(u *models.User) error {
		granted = u.GrantCourse(courseID)
		return nil
	})
	return granted, user, err
}

func emailInUse(users []models.User, email string, exceptID int) bool {
	for _, u := range users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
