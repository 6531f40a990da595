package repository

import (
	"context"
	"errors"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
)

var ErrCourseNotFound = errors.New("course not found")

// CourseRepository reads the catalog; courses are maintained outside the API.
type CourseRepository struct {
	courses *records.Collection[models.Course]
}

func NewCourseRepository(backend records.Backend) *CourseRepository {
	return &CourseRepository{courses: records.NewCollection[models.Course](backend, records.Courses)}
}

func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	return r.courses.All(ctx)
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (models.Course, error) {
	courses, err := r.courses.All(ctx)
	if err != nil {
		return models.Course{}, err
	}
	for _, course := range courses {
		if course.ID == id {
			return course, nil
		}
	}
	return models.Course{}, ErrCourseNotFound
}
