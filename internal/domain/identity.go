package domain

import (
	"time"

	"github.com/google/uuid"
)

// Namespace is the trust domain an identity and its tokens belong to.
type Namespace string

const (
	NamespaceAdmin Namespace = "admin"
	NamespaceUser  Namespace = "user"
)

func (n Namespace) Valid() bool {
	return n == NamespaceAdmin || n == NamespaceUser
}

// Table returns the table holding identities of the namespace.
func (n Namespace) Table() string {
	return string(n) + "s"
}

type Identity struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	FirstName    string    `json:"firstName" gorm:"not null"`
	LastName     string    `json:"lastName" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Admin and User share the Identity shape but live in separate tables,
// so an email may be registered once in each.
type Admin struct {
	Identity
}

type User struct {
	Identity
}
