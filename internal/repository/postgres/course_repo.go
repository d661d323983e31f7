package postgres

import (
	"context"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	return translate(r.db.WithContext(ctx).Create(course).Error)
}

func (r *courseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

func (r *courseRepository) GetAll(ctx context.Context) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Course, error) {
	courses := []*domain.Course{}
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// UpdateOwned applies changes only when the course belongs to creatorID.
// The ownership check and the write are a single statement.
func (r *courseRepository) UpdateOwned(ctx context.Context, id, creatorID uuid.UUID, changes repository.CourseChanges) (*domain.Course, error) {
	updates := map[string]interface{}{
		"title":       changes.Title,
		"description": changes.Description,
		"price":       changes.Price,
	}
	if changes.Image != nil {
		updates["image"] = datatypes.NewJSONType(*changes.Image)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Updates(updates)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrNoMatch
	}

	return r.GetByID(ctx, id)
}

func (r *courseRepository) DeleteOwned(ctx context.Context, id, creatorID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Delete(&domain.Course{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNoMatch
	}
	return nil
}
