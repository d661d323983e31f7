package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CourseImage references an image held by the asset host.
type CourseImage struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

type Course struct {
	ID          uuid.UUID                        `json:"id" gorm:"type:uuid;primary_key"`
	Title       string                           `json:"title" gorm:"not null"`
	Description string                           `json:"description" gorm:"not null"`
	Price       float64                          `json:"price" gorm:"not null"`
	Image       datatypes.JSONType[CourseImage] `json:"image" gorm:"type:jsonb"`
	CreatorID   uuid.UUID                        `json:"creatorId" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time                        `json:"createdAt"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
}

// PriceMinorUnits converts the major-unit price into the smallest currency unit.
func (c *Course) PriceMinorUnits() int64 {
	return int64(math.Round(c.Price * 100))
}
