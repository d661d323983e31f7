package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PNGBytes is a minimal payload sent as a PNG image
var PNGBytes = []byte("\x89PNG\r\n\x1a\nfake-image-data")

// IdentityBuilder creates test admins or users with a builder pattern
type IdentityBuilder struct {
	ns        domain.Namespace
	firstName string
	lastName  string
	email     string
	password  string
}

// NewIdentityBuilder creates a builder for ns with unique default values
func NewIdentityBuilder(ns domain.Namespace) *IdentityBuilder {
	suffix := uuid.New().String()[:8]
	return &IdentityBuilder{
		ns:        ns,
		firstName: "Test",
		lastName:  "Person",
		email:     fmt.Sprintf("%s_%s@example.com", ns, suffix),
		password:  "secret123",
	}
}

func (b *IdentityBuilder) WithEmail(email string) *IdentityBuilder {
	b.email = email
	return b
}

func (b *IdentityBuilder) WithPassword(password string) *IdentityBuilder {
	b.password = password
	return b
}

// Build inserts the identity directly into the database and returns it with the raw password
func (b *IdentityBuilder) Build(t *testing.T, db *gorm.DB) (*domain.Identity, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	identity := &domain.Identity{
		ID:           uuid.New(),
		FirstName:    b.firstName,
		LastName:     b.lastName,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := db.Table(b.ns.Table()).Create(identity).Error; err != nil {
		t.Fatalf("failed to create %s: %v", b.ns, err)
	}

	return identity, b.password
}

// RegisterAndLogin creates the identity through the API and returns its id and token
func (b *IdentityBuilder) RegisterAndLogin(t *testing.T, ts *TestServer) (uuid.UUID, string) {
	t.Helper()

	resp := DoJSON(t, http.MethodPost, ts.APIURL("/"+string(b.ns)+"/register"), map[string]string{
		"firstName": b.firstName,
		"lastName":  b.lastName,
		"email":     b.email,
		"password":  b.password,
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", b.ns, resp.StatusCode)
	}

	resp = DoJSON(t, http.MethodPost, ts.APIURL("/"+string(b.ns)+"/login"), map[string]string{
		"email":    b.email,
		"password": b.password,
	}, "")
	defer resp.Body.Close()

	var body map[string]json.RawMessage
	AssertJSONResponse(t, resp, &body)

	var token string
	if err := json.Unmarshal(body["token"], &token); err != nil {
		t.Fatalf("login %s: missing token: %v", b.ns, err)
	}
	var identity struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body[string(b.ns)], &identity); err != nil {
		t.Fatalf("login %s: missing identity: %v", b.ns, err)
	}

	return uuid.MustParse(identity.ID), token
}

// CourseBuilder creates test courses with a builder pattern
type CourseBuilder struct {
	title       string
	description string
	price       float64
	creatorID   uuid.UUID
}

func NewCourseBuilder(creatorID uuid.UUID) *CourseBuilder {
	return &CourseBuilder{
		title:       "Course " + uuid.New().String()[:8],
		description: "A course for testing",
		price:       49.99,
		creatorID:   creatorID,
	}
}

func (b *CourseBuilder) WithTitle(title string) *CourseBuilder {
	b.title = title
	return b
}

func (b *CourseBuilder) WithPrice(price float64) *CourseBuilder {
	b.price = price
	return b
}

// Build inserts the course directly into the database
func (b *CourseBuilder) Build(t *testing.T, db *gorm.DB) *domain.Course {
	t.Helper()

	now := time.Now()
	course := &domain.Course{
		ID:          uuid.New(),
		Title:       b.title,
		Description: b.description,
		Price:       b.price,
		Image: datatypes.NewJSONType(domain.CourseImage{
			PublicID: "seed/" + b.title,
			URL:      "https://assets.test/seed.png",
		}),
		CreatorID: b.creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.Create(course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}

	return course
}

// DoJSON sends body as JSON with an optional bearer token
func DoJSON(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return Do(t, req)
}

// Do sends req with the default client
func Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL, err)
	}
	return resp
}

// ImagePart describes the file part of a course form
type ImagePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PNGImage returns a small PNG image part
func PNGImage() *ImagePart {
	return &ImagePart{Filename: "cover.png", ContentType: "image/png", Data: PNGBytes}
}

// NewCourseFormRequest builds a multipart course request with an optional image and bearer token
func NewCourseFormRequest(t *testing.T, method, url string, fields map[string]string, image *ImagePart, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field %s: %v", name, err)
		}
	}

	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
		header.Set("Content-Type", image.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create image part: %v", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}
	return req
}

// CourseFields returns a valid set of course form fields
func CourseFields(title string) map[string]string {
	return map[string]string{
		"title":       title,
		"description": "Learn things",
		"price":       "19.99",
	}
}
