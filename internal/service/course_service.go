package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
)

const maxImageSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/avif": true,
}

// AssetHost stores course images outside the database.
type AssetHost interface {
	Upload(ctx context.Context, image domain.ImageUpload) (domain.CourseImage, error)
	Destroy(ctx context.Context, publicID string) error
}

// CatalogPublisher is told about every committed catalog change.
type CatalogPublisher interface {
	CourseCreated(course *domain.Course)
	CourseUpdated(course *domain.Course)
	CourseDeleted(courseID uuid.UUID)
}

type CourseService struct {
	courseRepo repository.CourseRepository
	assets     AssetHost
	publisher  CatalogPublisher
	metrics    metrics.Recorder
	validate   *validator.Validate
	sanitizer  *bluemonday.Policy
	timeout    time.Duration
}

func NewCourseService(courseRepo repository.CourseRepository, assets AssetHost, publisher CatalogPublisher, recorder metrics.Recorder, timeout time.Duration) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		assets:     assets,
		publisher:  publisher,
		metrics:    recorder,
		validate:   newValidator(),
		sanitizer:  bluemonday.StrictPolicy(),
		timeout:    timeout,
	}
}

type CourseInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	// the upper bound keeps the price in minor units inside int64
	Price       float64 `json:"price" validate:"required,gt=0,lte=999999.99"`
}

func (s *CourseService) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	return s.courseRepo.GetAll(ctx)
}

func (s *CourseService) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// CreateCourse validates the input and image, uploads the image and stores
// the course with creatorID as its owner.
func (s *CourseService) CreateCourse(ctx context.Context, creatorID uuid.UUID, input CourseInput, image *domain.ImageUpload) (*domain.Course, error) {
	input = s.sanitize(input)

	messages, err := validationMessages(s.validate, input)
	if err != nil {
		return nil, err
	}
	if image == nil || len(image.Data) == 0 {
		messages = append(messages, "No file upload")
	} else if msg := checkImage(image); msg != "" {
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		return nil, newValidationError(messages...)
	}

	uploaded, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	course := &domain.Course{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Image:       datatypes.NewJSONType(uploaded),
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		s.destroy(ctx, uploaded.PublicID)
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.publisher.CourseCreated(course)
	return course, nil
}

// UpdateCourse replaces the text fields and, when image is non-nil, the image.
// Only the course's creator may update it.
func (s *CourseService) UpdateCourse(ctx context.Context, principalID, courseID uuid.UUID, input CourseInput, image *domain.ImageUpload) (*domain.Course, error) {
	existing, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	input = s.sanitize(input)

	messages, err := validationMessages(s.validate, input)
	if err != nil {
		return nil, err
	}
	if image != nil {
		if msg := checkImage(image); msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) > 0 {
		return nil, newValidationError(messages...)
	}

	if existing.CreatorID != principalID {
		return nil, ErrNotCourseOwner
	}

	changes := repository.CourseChanges{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
	}
	if image != nil {
		uploaded, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		changes.Image = &uploaded
	}

	updated, err := s.courseRepo.UpdateOwned(ctx, courseID, principalID, changes)
	if err != nil {
		if changes.Image != nil {
			s.destroy(ctx, changes.Image.PublicID)
		}
		if errors.Is(err, repository.ErrNoMatch) {
			return nil, s.scopeMiss(ctx, courseID)
		}
		return nil, fmt.Errorf("update course: %w", err)
	}

	if changes.Image != nil {
		s.destroy(ctx, existing.Image.Data().PublicID)
	}

	s.publisher.CourseUpdated(updated)
	return updated, nil
}

// DeleteCourse removes a course owned by principalID together with its image.
func (s *CourseService) DeleteCourse(ctx context.Context, principalID, courseID uuid.UUID) error {
	existing, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}

	if err := s.courseRepo.DeleteOwned(ctx, courseID, principalID); err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return s.scopeMiss(ctx, courseID)
		}
		return fmt.Errorf("delete course: %w", err)
	}

	s.destroy(ctx, existing.Image.Data().PublicID)
	s.publisher.CourseDeleted(courseID)
	return nil
}

// scopeMiss explains why an owner-scoped write matched nothing.
func (s *CourseService) scopeMiss(ctx context.Context, courseID uuid.UUID) error {
	if _, err := s.courseRepo.GetByID(ctx, courseID); errors.Is(err, repository.ErrNotFound) {
		return ErrCourseNotFound
	}
	return ErrNotCourseOwner
}

// sanitize strips markup from the text fields. Titles and descriptions are
// stored as plain text, so the entities the policy escapes are decoded again.
func (s *CourseService) sanitize(input CourseInput) CourseInput {
	input.Title = s.plainText(input.Title)
	input.Description = s.plainText(input.Description)
	return input
}

func (s *CourseService) plainText(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func (s *CourseService) upload(ctx context.Context, image *domain.ImageUpload) (domain.CourseImage, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uploaded, err := s.assets.Upload(callCtx, *image)
	if err != nil {
		s.metrics.RecordUpload(false)
		return domain.CourseImage{}, &UploadError{Err: err}
	}
	s.metrics.RecordUpload(true)
	return uploaded, nil
}

// destroy removes an asset best-effort; failures only leave an orphaned image.
func (s *CourseService) destroy(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.assets.Destroy(callCtx, publicID); err != nil {
		slog.Warn("failed to destroy course image", "public_id", publicID, "error", err)
	}
}

func checkImage(image *domain.ImageUpload) string {
	if !allowedImageTypes[image.ContentType] {
		return "Invalid file format. Only PNG, JPEG and AVIF are allowed"
	}
	if len(image.Data) > maxImageSize {
		return "Image exceeds the 10MB limit"
	}
	return ""
}
