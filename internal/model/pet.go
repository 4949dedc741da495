package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender values accepted for a pet.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Pet represents one animal owned by exactly one user.
//
// OwnerID is set from the authenticated identity at creation and is never
// client-supplied. ImagePath, when non-nil, is the storage key of a photo
// that was written to the bucket before the row started referencing it.
type Pet struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:char(36);not null;index"`
	Name      string    `json:"name" gorm:"size:50;not null"`
	Category  string    `json:"category" gorm:"size:50;not null"`
	Birthday  time.Time `json:"birthday" gorm:"not null"`
	Gender    string    `json:"gender" gorm:"size:10;not null"`
	ImagePath *string   `json:"image_path" gorm:"size:512"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Pet) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
