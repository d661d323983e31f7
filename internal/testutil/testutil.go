package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/coursemarket/internal/api"
	"github.com/dom/coursemarket/internal/api/middleware"
	"github.com/dom/coursemarket/internal/config"
	"github.com/dom/coursemarket/internal/logger"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/repository"
	repoPostgres "github.com/dom/coursemarket/internal/repository/postgres"
	"github.com/dom/coursemarket/internal/service"
	"github.com/dom/coursemarket/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_coursemarket"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB.DB = db
	testDB.DSN = dsn
	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"purchases", "courses", "users", "admins"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Environment:         "test",
		FrontendURL:         "http://localhost:5173",
		JWTAdminSecret:      "test-admin-secret-for-testing-only",
		JWTUserSecret:       "test-user-secret-for-testing-only",
		JWTExpirationHours:  1,
		AuthTransport:       config.TransportBearer,
		BcryptCost:          4, // bcrypt.MinCost keeps tests fast
		StripeSecretKey:     "sk_test_unused",
		StripeWebhookSecret: "whsec_unused",
		PaymentCurrency:     "usd",
		CloudinaryCloudName: "test",
		CloudinaryAPIKey:    "test",
		CloudinaryAPISecret: "test",
		ExternalCallTimeout: 2 * time.Second,
		AuthRatePerMinute:   1000,
		PendingPurchaseTTL:  30 * time.Minute,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
	Assets   *FakeAssetHost
	Payments *FakePaymentProcessor
	Registry *prometheus.Registry
}

// ServerOption adjusts the test configuration before the server is built
type ServerOption func(*config.Config)

func WithCookieTransport() ServerOption {
	return func(cfg *config.Config) {
		cfg.AuthTransport = config.TransportCookie
	}
}

func WithAuthRatePerMinute(n int) ServerOption {
	return func(cfg *config.Config) {
		cfg.AuthRatePerMinute = n
	}
}

// NewTestServer creates a complete test server backed by a fresh database
// and fake external services
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()
	return NewTestServerWithDB(t, NewTestDB(t), opts...)
}

// NewTestServerWithDB builds a test server on an existing database
func NewTestServerWithDB(t *testing.T, testDB *TestDB, opts ...ServerOption) *TestServer {
	t.Helper()

	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	repos := repoPostgres.NewRepositories(testDB.DB)
	hub := websocket.NewHub()
	go hub.Run()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	assets := NewFakeAssetHost()
	payments := NewFakePaymentProcessor()

	services := service.NewServices(repos, cfg, service.Dependencies{
		Assets:    assets,
		Payments:  payments,
		Publisher: hub,
		Metrics:   collector,
	})

	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)
	router := api.NewRouter(services, hub, cfg, api.Observability{
		Logger:   logger.Setup(io.Discard, slog.LevelError),
		Metrics:  collector,
		Gatherer: registry,
	}, authLimiter)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
		Assets:   assets,
		Payments: payments,
		Registry: registry,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
		authLimiter.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// EventsURL returns the catalog feed WebSocket URL
func (ts *TestServer) EventsURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/api/v1/course/events"
}
