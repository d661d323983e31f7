package handlers

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dom/coursemarket/internal/api/middleware"
	"github.com/dom/coursemarket/internal/api/response"
	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxImageBytes     = 10 << 20
	maxMultipartBytes = maxImageBytes + 1<<20
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type CourseResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Price       float64            `json:"price"`
	Image       domain.CourseImage `json:"image"`
	CreatorID   string             `json:"creatorId"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toCourseResponse(course *domain.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID.String(),
		Title:       course.Title,
		Description: course.Description,
		Price:       course.Price,
		Image:       course.Image.Data(),
		CreatorID:   course.CreatorID.String(),
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

func toCourseResponses(courses []*domain.Course) []CourseResponse {
	resp := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, toCourseResponse(c))
	}
	return resp
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, r, "course.list", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"courses": toCourseResponses(courses),
	})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, ok := parseCourseID(w, r)
	if !ok {
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), courseID)
	if err != nil {
		writeServiceError(w, r, "course.get", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"course": toCourseResponse(course),
	})
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetPrincipalID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	input, image, err := parseCourseForm(w, r)
	if err != nil {
		writeServiceError(w, r, "course.create", err)
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), adminID, input, image)
	if err != nil {
		writeServiceError(w, r, "course.create", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Course created successfully",
		"course":  toCourseResponse(course),
	})
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetPrincipalID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	courseID, ok := parseCourseID(w, r)
	if !ok {
		return
	}

	input, image, err := parseCourseForm(w, r)
	if err != nil {
		writeServiceError(w, r, "course.update", err)
		return
	}

	course, err := h.courseService.UpdateCourse(r.Context(), adminID, courseID, input, image)
	if err != nil {
		writeServiceError(w, r, "course.update", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Course updated successfully",
		"course":  toCourseResponse(course),
	})
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetPrincipalID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	courseID, ok := parseCourseID(w, r)
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), adminID, courseID); err != nil {
		writeServiceError(w, r, "course.delete", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]string{
		"message": "Course deleted successfully",
	})
}

// parseCourseID reads the {id} path parameter. A malformed id cannot name
// any course, so it is reported as a missing course.
func parseCourseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, service.ErrCourseNotFound.Error())
		return uuid.Nil, false
	}
	return courseID, true
}

// parseCourseForm reads the multipart course fields and the optional image.
// A missing image yields a nil upload; the service decides whether that is
// acceptable.
func parseCourseForm(w http.ResponseWriter, r *http.Request) (service.CourseInput, *domain.ImageUpload, error) {
	var input service.CourseInput

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		return input, nil, &service.ValidationError{Messages: []string{"Request must be multipart/form-data within 11MB"}}
	}

	input.Title = r.FormValue("title")
	input.Description = r.FormValue("description")
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
			return input, nil, &service.ValidationError{Messages: []string{"price must be a number"}}
		}
		input.Price = price
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil, nil
	}
	if err != nil {
		return input, nil, &service.ValidationError{Messages: []string{"Invalid image upload"}}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return input, nil, err
	}

	return input, &domain.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
