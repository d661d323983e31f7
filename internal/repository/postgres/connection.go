package postgres

import (
	"errors"

	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the tables, including the unique indexes
// on identity emails and on purchase (user_id, course_id).
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Admin{},
		&domain.User{},
		&domain.Course{},
		&domain.Purchase{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Admin:    NewIdentityRepository(db, domain.NamespaceAdmin),
		User:     NewIdentityRepository(db, domain.NamespaceUser),
		Course:   NewCourseRepository(db),
		Purchase: NewPurchaseRepository(db),
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	default:
		return err
	}
}
