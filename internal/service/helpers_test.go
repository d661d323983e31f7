package service_test

import (
	"sync"
	"testing"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/repository"
	"github.com/dom/coursemarket/internal/repository/postgres"
	"github.com/dom/coursemarket/internal/service"
	"github.com/dom/coursemarket/internal/testutil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []uuid.UUID
	updated []uuid.UUID
	deleted []uuid.UUID
}

func (p *recordingPublisher) CourseCreated(course *domain.Course) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, course.ID)
}

func (p *recordingPublisher) CourseUpdated(course *domain.Course) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, course.ID)
}

func (p *recordingPublisher) CourseDeleted(courseID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, courseID)
}

type serviceEnv struct {
	db        *testutil.TestDB
	repos     *repository.Repositories
	services  *service.Services
	assets    *testutil.FakeAssetHost
	payments  *testutil.FakePaymentProcessor
	publisher *recordingPublisher
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	env := &serviceEnv{
		db:        testDB,
		repos:     repos,
		assets:    testutil.NewFakeAssetHost(),
		payments:  testutil.NewFakePaymentProcessor(),
		publisher: &recordingPublisher{},
	}
	env.services = service.NewServices(repos, testutil.TestConfig(), service.Dependencies{
		Assets:    env.assets,
		Payments:  env.payments,
		Publisher: env.publisher,
		Metrics:   metrics.NewCollector(prometheus.NewRegistry()),
	})
	return env
}

// reset clears the database and swaps in fresh fakes
func (env *serviceEnv) reset(t *testing.T) {
	t.Helper()
	env.db.Truncate(t)
	env.assets.SetFailUpload(false)
	env.payments.SetFail(false)
	env.payments.SetFailCancel(false)
}

func pngUpload() *domain.ImageUpload {
	return &domain.ImageUpload{Filename: "cover.png", ContentType: "image/png", Data: testutil.PNGBytes}
}
